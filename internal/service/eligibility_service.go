package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/repository"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// EligibilityService runs the questionnaire verdict and persists answer sets.
type EligibilityService struct {
	records    repository.EligibilityRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewEligibilityService constructs the service.
func NewEligibilityService(records repository.EligibilityRepository, users repository.UserRepository, dispatcher events.Dispatcher) *EligibilityService {
	return &EligibilityService{records: records, users: users, dispatcher: dispatcher}
}

// Questions returns the ordered questionnaire catalog.
func (s *EligibilityService) Questions() []domain.Question {
	return domain.Questionnaire()
}

// Evaluate validates a complete answer set and computes the verdict without
// persisting anything. Used by the pre-signup questionnaire run.
func (s *EligibilityService) Evaluate(answers domain.AnswerSet) (bool, error) {
	if problems := domain.ValidateAnswers(answers); problems != nil {
		details := make(map[string]any, len(problems))
		for k, v := range problems {
			details[k] = v
		}
		return false, apperrors.NewValidationError("incomplete or invalid answers", details)
	}
	return domain.EvaluateEligibility(answers), nil
}

// Submit validates, evaluates and stores the answer set for an authenticated
// user, then flips the user's eligibility flag. The answer set is write-once.
func (s *EligibilityService) Submit(ctx context.Context, userID string, answers domain.AnswerSet) (*domain.EligibilityRecord, error) {
	verdict, err := s.Evaluate(answers)
	if err != nil {
		return nil, err
	}

	if _, err := s.records.GetByUser(ctx, userID); err == nil {
		return nil, apperrors.NewConflict("eligibility answers already submitted", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	// The flag flips before the record insert: if the insert fails the user
	// can simply resubmit (no record means no conflict), whereas a stored
	// record with a stale flag has no retry path.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsEligible = verdict
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	record := &domain.EligibilityRecord{
		UserID:     userID,
		Answers:    answers,
		IsEligible: verdict,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventEligibilityRecorded,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   events.EligibilityRecordedPayload{IsEligible: verdict},
	})

	return record, nil
}

// Result returns the stored answer set and verdict for a user.
func (s *EligibilityService) Result(ctx context.Context, userID string) (*domain.EligibilityRecord, error) {
	record, err := s.records.GetByUser(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("eligibility result", nil)
		}
		return nil, err
	}
	return record, nil
}
