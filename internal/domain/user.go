package domain

import "time"

// UserStatus represents lifecycle states for an applicant account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// PaymentStatus reflects whether the flat service fee has been captured.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// User is the domain model for applicants going through the exemption flow.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	EmailVerified   bool
	TermsAcceptedAt *time.Time
	IsEligible      bool
	PaymentStatus   PaymentStatus
	Status          UserStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
