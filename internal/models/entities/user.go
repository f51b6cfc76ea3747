package entities

import (
	"inkworks/redpen/internal/constants"
	"time"
)

type User struct {
	ID        string             `db:"id"`
	Email     string             `db:"email"`
	UserName  *string            `db:"username"`
	Role      constants.UserRole `db:"role"`
	IsActive  bool               `db:"is_active"`
	CreatedAt time.Time          `db:"created_at"`
	UpdatedAt time.Time          `db:"updated_at"`
}
