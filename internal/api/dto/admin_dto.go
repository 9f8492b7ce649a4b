package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/repository"
)

// AdminLoginRequest payload for console login.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserListResponse is a paginated applicant listing.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
}

// SubmissionSummaryResponse is one row in the admin submission listing.
type SubmissionSummaryResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Completed     bool       `json:"completed"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	DocumentCount int64      `json:"document_count"`
	VerifiedCount int64      `json:"verified_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewSubmissionSummaryResponse maps a repository summary row.
func NewSubmissionSummaryResponse(s repository.SubmissionSummary) SubmissionSummaryResponse {
	return SubmissionSummaryResponse{
		ID:            s.Submission.ID,
		UserID:        s.Submission.UserID,
		Completed:     s.Submission.Completed,
		StartedAt:     s.Submission.StartedAt,
		DocumentCount: s.DocumentCount,
		VerifiedCount: s.VerifiedCount,
		CreatedAt:     s.Submission.CreatedAt,
	}
}

// AdminUserDetailResponse combines the applicant with their progress.
type AdminUserDetailResponse struct {
	User        UserResponse               `json:"user"`
	Eligibility *EligibilityResultResponse `json:"eligibility,omitempty"`
	Order       *PaymentOrderResponse      `json:"order,omitempty"`
	Submission  *SubmissionStatusResponse  `json:"submission,omitempty"`
}

// SuspendUserRequest toggles an account's status.
type SuspendUserRequest struct {
	Suspend bool `json:"suspend"`
}
