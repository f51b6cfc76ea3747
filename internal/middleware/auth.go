package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/db/repositories"
)

// AuthMiddleware resolves claims for the two request sources: browser
// sessions carry a Bearer JWT, trusted services authenticate with the
// shared service key plus an explicit user header.
func AuthMiddleware(userRepo *repositories.UserRepository) func(http.Handler) http.Handler {
	serviceKey := os.Getenv("SERVICE_API_KEY")

	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get("X-API-Key")

			var claims auth.UserClaims

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				tokenString := strings.TrimPrefix(authHeader, "Bearer ")

				jwtClaims, err := auth.ParseToken(tokenString)
				if err != nil {
					http.Error(w, "Unauthorized. Invalid token", http.StatusUnauthorized)
					return
				}
				claims = jwtClaims

			case apiKey != "":
				if serviceKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(serviceKey)) != 1 {
					http.Error(w, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
					return
				}

				userId := r.Header.Get("X-User-Id")
				if userId == "" {
					http.Error(w, "Unauthorized. Missing X-User-Id", http.StatusUnauthorized)
					return
				}

				claims = auth.MakeClaimsFromApi(r.Context(), userRepo, userId)

			default:
				http.Error(w, "Unauthorized. Missing credentials", http.StatusUnauthorized)
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
