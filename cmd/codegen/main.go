package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"inkworks/redpen/internal/db"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/services"
)

// Batch-generates redemption codes straight into the database.
//
//	codegen -count 50 -prefix PROMO -type POINTS -value 100
func main() {
	count := flag.Int("count", 10, "number of codes to generate (1-1000)")
	prefix := flag.String("prefix", "", "optional code prefix, e.g. PROMO")
	codeType := flag.String("type", "POINTS", "code type: POINTS or MEMBERSHIP")
	value := flag.Int64("value", 100, "points granted, or membership days for MEMBERSHIP codes")
	flag.Parse()

	host := os.Getenv("PG_HOST")
	port := os.Getenv("PG_PORT")
	user := os.Getenv("PG_USER")
	dbname := os.Getenv("PG_DB")
	password := os.Getenv("PG_PASSWORD")
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

	gormDB, err := db.InitPostgresORM(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	// Generate only touches the codes repository
	svc := services.NewRedemptionService(repositories.NewRedemptionRepository(gormDB), nil, nil)

	codes, err := svc.Generate(context.Background(), *count, *prefix, *codeType, *value)
	if err != nil {
		log.Fatalf("generate codes: %v", err)
	}

	for _, code := range codes {
		fmt.Println(code)
	}
	fmt.Fprintf(os.Stderr, "generated %d %s codes (value %d)\n", len(codes), *codeType, *value)
}
