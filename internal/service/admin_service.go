package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/repository"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// AdminService aggregates back-office views over applicant data.
type AdminService struct {
	users       repository.UserRepository
	eligibility repository.EligibilityRepository
	payments    repository.PaymentOrderRepository
	submissions repository.SubmissionRepository
	documents   repository.DocumentRepository
}

// AdminDependencies encapsulates repositories for the admin console.
type AdminDependencies struct {
	UserRepo        repository.UserRepository
	EligibilityRepo repository.EligibilityRepository
	PaymentRepo     repository.PaymentOrderRepository
	SubmissionRepo  repository.SubmissionRepository
	DocumentRepo    repository.DocumentRepository
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:       deps.UserRepo,
		eligibility: deps.EligibilityRepo,
		payments:    deps.PaymentRepo,
		submissions: deps.SubmissionRepo,
		documents:   deps.DocumentRepo,
	}
}

// ListUsers returns a filtered applicant page plus the total match count.
func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	users, err := s.users.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UserDetail is the full back-office view of one applicant.
type UserDetail struct {
	User        *domain.User
	Eligibility *domain.EligibilityRecord
	Order       *domain.PaymentOrder
	Submission  *domain.Submission
	Documents   []domain.Document
}

// GetUserDetail loads an applicant with eligibility, payment and intake state.
func (s *AdminService) GetUserDetail(ctx context.Context, userID string) (*UserDetail, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	detail := &UserDetail{User: user}

	if rec, err := s.eligibility.GetByUser(ctx, userID); err == nil {
		detail.Eligibility = rec
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	if order, err := s.payments.GetLatestByUser(ctx, userID); err == nil {
		detail.Order = order
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	if sub, err := s.submissions.GetByUser(ctx, userID); err == nil {
		detail.Submission = sub
		docs, err := s.documents.ListBySubmission(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		detail.Documents = docs
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	return detail, nil
}

// SetUserSuspended toggles the applicant's account status.
func (s *AdminService) SetUserSuspended(ctx context.Context, userID string, suspend bool) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	status := domain.UserStatusActive
	if suspend {
		status = domain.UserStatusSuspended
	}
	if user.Status == status {
		return user, nil
	}
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListSubmissions returns a submission page for review.
func (s *AdminService) ListSubmissions(ctx context.Context, filter repository.SubmissionFilter) ([]repository.SubmissionSummary, error) {
	return s.submissions.ListWithFilter(ctx, filter)
}
