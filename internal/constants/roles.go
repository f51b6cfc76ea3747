package constants

import (
	"database/sql/driver"
	"fmt"
)

// UserRole mirrors the Postgres ENUM 'user_role'
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Stringer ­– convenient for fmt / logs
func (r UserRole) String() string { return string(r) }

/* ---------- DB adapters so sqlx (or database/sql) scans/values cleanly ---------- */

// Scan implements the sql.Scanner interface
func (r *UserRole) Scan(src interface{}) error {
	if src == nil {
		*r = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*r = UserRole(v)
	case []byte:
		*r = UserRole(v)
	default:
		return fmt.Errorf("UserRole: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (r UserRole) Value() (driver.Value, error) { return string(r), nil }

// MembershipType mirrors the Postgres ENUM 'membership_type'
type MembershipType string

const (
	MembershipFree    MembershipType = "FREE"
	MembershipPremium MembershipType = "PREMIUM"
	MembershipPro     MembershipType = "PRO"
)

func (m MembershipType) String() string { return string(m) }

// IsPaid reports whether the tier unlocks pro pricing and pro-only tools.
func (m MembershipType) IsPaid() bool {
	return m == MembershipPremium || m == MembershipPro
}

// DailyPoints is the login bonus for the tier.
func (m MembershipType) DailyPoints() int64 {
	switch m {
	case MembershipPremium:
		return 10
	case MembershipPro:
		return 20
	default:
		return 5
	}
}

// Scan implements the sql.Scanner interface
func (m *MembershipType) Scan(src interface{}) error {
	if src == nil {
		*m = MembershipFree
		return nil
	}
	switch v := src.(type) {
	case string:
		*m = MembershipType(v)
	case []byte:
		*m = MembershipType(v)
	default:
		return fmt.Errorf("MembershipType: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (m MembershipType) Value() (driver.Value, error) { return string(m), nil }
