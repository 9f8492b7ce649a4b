package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// EligibilityAnswersRequest carries a full answer set.
type EligibilityAnswersRequest struct {
	Answers map[string]string `json:"answers"`
}

// AnswerSet converts the raw payload to domain keys.
func (r EligibilityAnswersRequest) AnswerSet() domain.AnswerSet {
	out := make(domain.AnswerSet, len(r.Answers))
	for id, value := range r.Answers {
		out[domain.QuestionID(id)] = value
	}
	return out
}

// EligibilityVerdictResponse is the evaluation outcome.
type EligibilityVerdictResponse struct {
	IsEligible bool `json:"is_eligible"`
}

// EligibilityResultResponse is the persisted record view.
type EligibilityResultResponse struct {
	IsEligible bool              `json:"is_eligible"`
	Answers    map[string]string `json:"answers"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// NewEligibilityResultResponse maps a persisted record.
func NewEligibilityResultResponse(rec *domain.EligibilityRecord) EligibilityResultResponse {
	answers := make(map[string]string, len(rec.Answers))
	for id, value := range rec.Answers {
		answers[string(id)] = value
	}
	return EligibilityResultResponse{
		IsEligible: rec.IsEligible,
		Answers:    answers,
		RecordedAt: rec.CreatedAt,
	}
}
