package middleware

import (
	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/constants"
	"net/http"
)

// IsTeacherMiddleware gates batch-polishing endpoints. Admins pass too.
func IsTeacherMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetUserClaims(r.Context())

			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			role := claims.Role()
			if role != constants.RoleTeacher.String() && role != constants.RoleAdmin.String() {
				http.Error(w, "Unauthorized. Need teacher perms", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
