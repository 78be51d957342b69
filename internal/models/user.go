package models

import "time"

// UserRole identifies the level of access of an account.
type UserRole string

const (
	RoleMember    UserRole = "MEMBER"
	RoleTreasurer UserRole = "TREASURER"
	RoleAdmin     UserRole = "ADMIN"
)

// StaffRole reports whether the role can operate the treasury console.
func StaffRole(r UserRole) bool {
	return r == RoleTreasurer || r == RoleAdmin
}

// User is an authenticated account. Members get one on registration; staff
// accounts are provisioned by an admin.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserInfo is the trimmed user payload embedded in auth responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}
