package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// UserRegisterRequest payload for new applicants.
type UserRegisterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	TermsAccepted bool   `json:"terms_accepted"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyEmailRequest carries the emailed verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes the reset flow.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest for a logged-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfileRequest partial profile update.
type UpdateProfileRequest struct {
	Name *string `json:"name"`
}

// UserResponse is the applicant profile view.
type UserResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	EmailVerified bool                 `json:"email_verified"`
	IsEligible    bool                 `json:"is_eligible"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Status        domain.UserStatus    `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		IsEligible:    u.IsEligible,
		PaymentStatus: u.PaymentStatus,
		Status:        u.Status,
		CreatedAt:     u.CreatedAt,
	}
}
