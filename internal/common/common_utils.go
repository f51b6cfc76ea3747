package common

import (
	"encoding/json"
	"fmt"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/models/dtos"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// GetBalanceFromCache reads a cached balance. The in-memory cache hands the
// int64 back as stored; the Redis cache JSON round-trips it into a float64.
func GetBalanceFromCache(c CacheInterface, userID string) *int64 {
	val, found := c.Get(string(constants.CachePrefixBalance) + userID)
	if !found {
		return nil
	}

	switch v := val.(type) {
	case int64:
		return &v
	case float64:
		balance := int64(v)
		return &balance
	}
	return nil
}

// GetToolCatalogFromCache reads the cached tool catalog, re-decoding the
// generic shape the Redis cache returns back into the concrete slice.
func GetToolCatalogFromCache(c CacheInterface) []dtos.ToolInfo {
	val, found := c.Get(string(constants.CachePrefixToolCatalog))
	if !found {
		return nil
	}

	if tools, ok := val.([]dtos.ToolInfo); ok {
		return tools
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return nil
	}
	var tools []dtos.ToolInfo
	if err := json.Unmarshal(raw, &tools); err != nil || len(tools) == 0 {
		return nil
	}
	return tools
}
