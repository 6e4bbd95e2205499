package model

import "time"

// Roles stored in users.role.
const (
	RoleUser             = "user"
	RoleAdmin            = "admin"
	RoleAdminVerificator = "admin_verificator"
)

// Keys of the system_tokens table.
const (
	TokenAdminRegistration = "ADMIN_REG_TOKEN"
	TokenPasswordReset     = "RESET_PASS_TOKEN"
)

// User represents an application account as stored in the `users` table.
// PasswordHash never leaves the server.
//
// Fields:
//  ID                – primary key identifier.
//  Username          – unique login name.
//  Email             – unique address, nullable for legacy accounts.
//  Role              – user | admin | admin_verificator.
//  IsSuspended       – suspended users cannot log in.
//  LastLoginAt       – updated on every successful login.
type User struct {
	ID                int64      `json:"user_id"`             // users.user_id
	Username          string     `json:"username"`            // users.username
	Email             *string    `json:"email"`               // users.email
	PasswordHash      string     `json:"-"`                   // users.password_hash
	FullName          string     `json:"full_name"`           // users.full_name
	Role              string     `json:"role"`                // users.role
	Department        *string    `json:"department"`          // users.department
	ProfilePictureURL *string    `json:"profile_picture_url"` // users.profile_picture_url
	IsSuspended       bool       `json:"is_suspended"`        // users.is_suspended
	CreatedAt         time.Time  `json:"created_at"`          // users.created_at
	LastLoginAt       *time.Time `json:"last_login_at"`       // users.last_login_at
}

// IsAdmin reports whether the role may manage the catalogue and users.
func IsAdmin(role string) bool { return role == RoleAdmin }

// CanVerify reports whether the role may approve or reject reservations.
func CanVerify(role string) bool { return role == RoleAdmin || role == RoleAdminVerificator }

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleAdminVerificator:
		return true
	}
	return false
}
