package auth

import (
	"context"
	"log"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
)

// MakeClaimsFromApi builds claims for a service-key request. The role comes
// from the users table; an unknown user falls through as a student so the
// role gates reject anything privileged.
func MakeClaimsFromApi(ctx context.Context, repo *repositories.UserRepository, userID string) *APIKeyClaims {

	role := constants.RoleStudent

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("claims lookup failed for user %q: %v", userID, err)
	} else if user != nil {
		role = user.Role
	}

	return &APIKeyClaims{
		UserUUID:  userID,
		RoleValue: role,
	}
}
