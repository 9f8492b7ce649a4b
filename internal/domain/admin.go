package domain

import "time"

// AdminRole enumerates back-office roles.
type AdminRole string

const (
	AdminRoleAdmin   AdminRole = "ADMIN"
	AdminRoleSupport AdminRole = "SUPPORT"
)

// Admin is a back-office operator with access to the admin console.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AdminRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
