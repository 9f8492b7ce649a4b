package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/service"
)

// DocumentResponse metadata for one uploaded file.
type DocumentResponse struct {
	ID        string                  `json:"id"`
	Category  domain.DocumentCategory `json:"category"`
	FileName  string                  `json:"file_name"`
	MimeType  string                  `json:"mime_type"`
	SizeBytes int64                   `json:"size_bytes"`
	Verified  bool                    `json:"verified"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewDocumentResponse maps a domain document.
func NewDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID,
		Category:  d.Category,
		FileName:  d.FileName,
		MimeType:  d.MimeType,
		SizeBytes: d.SizeBytes,
		Verified:  d.Verified,
		CreatedAt: d.CreatedAt,
	}
}

// SubmissionStatusResponse is the applicant's document intake view.
type SubmissionStatusResponse struct {
	SubmissionID string             `json:"submission_id,omitempty"`
	Completed    bool               `json:"completed"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	Documents    []DocumentResponse `json:"documents"`
	Verified     map[string]bool    `json:"verified"`
	CanStart     bool               `json:"can_start"`
}

// NewSubmissionStatusResponse maps the service status aggregate.
func NewSubmissionStatusResponse(status *service.Status) SubmissionStatusResponse {
	resp := SubmissionStatusResponse{
		Documents: make([]DocumentResponse, 0, len(status.Documents)),
		Verified:  make(map[string]bool, len(status.Verified)),
		CanStart:  status.CanStart,
	}
	if status.Submission != nil {
		resp.SubmissionID = status.Submission.ID
		resp.Completed = status.Submission.Completed
		resp.StartedAt = status.Submission.StartedAt
	}
	for i := range status.Documents {
		resp.Documents = append(resp.Documents, NewDocumentResponse(&status.Documents[i]))
	}
	for cat, ok := range status.Verified {
		resp.Verified[string(cat)] = ok
	}
	return resp
}

// VerifyDocumentRequest toggles a document's verified flag.
type VerifyDocumentRequest struct {
	Verified bool `json:"verified"`
}
