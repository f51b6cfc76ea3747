package auth

import "inkworks/redpen/internal/constants"

// Common interface for the two request sources (browser JWT, service API key).
type UserClaims interface {
	UserID() string
	Role() string
	Source() string
	HasPermission(action string) bool
}

type JWTClaims struct {
	UserUUID  string
	RoleValue constants.UserRole
}

func (c *JWTClaims) UserID() string { return c.UserUUID }
func (c *JWTClaims) Role() string { // implements UserClaims
	return string(c.RoleValue)
}
func (c *JWTClaims) Source() string            { return "JWT" }
func (c *JWTClaims) HasPermission(string) bool { return true }

type APIKeyClaims struct {
	UserUUID  string
	RoleValue constants.UserRole
}

func (c *APIKeyClaims) UserID() string { return c.UserUUID }
func (c *APIKeyClaims) Role() string { // implements UserClaims
	return string(c.RoleValue)
}
func (c *APIKeyClaims) Source() string            { return "API_KEY" }
func (c *APIKeyClaims) HasPermission(string) bool { return true }
