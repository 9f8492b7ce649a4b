package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/repository"
	"github.com/spec-kit/exemption-service/internal/storage"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// SubmissionService manages document intake and the process-start gate.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	documents   repository.DocumentRepository
	users       repository.UserRepository
	blobs       storage.BlobStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	maxUpload   int64
}

// SubmissionDependencies bundles requirements for the submission service.
type SubmissionDependencies struct {
	SubmissionRepo repository.SubmissionRepository
	DocumentRepo   repository.DocumentRepository
	UserRepo       repository.UserRepository
	Blobs          storage.BlobStore
	Dispatcher     events.Dispatcher
}

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies, maxUploadBytes int64, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		submissions: deps.SubmissionRepo,
		documents:   deps.DocumentRepo,
		users:       deps.UserRepo,
		blobs:       deps.Blobs,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		maxUpload:   maxUploadBytes,
	}
}

// UploadInput describes one incoming document file.
type UploadInput struct {
	Category domain.DocumentCategory
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Upload stores the blob first, then records metadata; the blob is removed
// again if the metadata write fails so storage and rows cannot diverge.
// Re-uploading a category replaces the previous document.
func (s *SubmissionService) Upload(ctx context.Context, userID string, input UploadInput) (*domain.Document, error) {
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown document category", map[string]any{"category": string(input.Category)})
	}
	if input.FileName == "" {
		return nil, apperrors.NewValidationError("file name required", nil)
	}
	if s.maxUpload > 0 && input.Size > s.maxUpload {
		return nil, apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.maxUpload})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PaymentStatus != domain.PaymentStatusPaid {
		return nil, apperrors.NewPaymentRequired()
	}

	sub, err := s.ensureSubmission(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(input.FileName)
	written, err := s.blobs.Put(key, input.Content)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	// A previous document in this category is replaced, row first, blob after.
	previous, err := s.documents.GetBySubmissionCategory(ctx, sub.ID, input.Category)
	if err != nil && err != pgx.ErrNoRows {
		s.discardBlob(key)
		return nil, err
	}
	if previous != nil {
		if err := s.documents.Delete(ctx, previous.ID); err != nil {
			s.discardBlob(key)
			return nil, err
		}
		s.discardBlob(previous.StorageKey)
	}

	doc := &domain.Document{
		SubmissionID: sub.ID,
		Category:     input.Category,
		StorageKey:   key,
		FileName:     input.FileName,
		MimeType:     input.MimeType,
		SizeBytes:    written,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.discardBlob(key)
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventDocumentUploaded,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload: events.DocumentUploadedPayload{
			DocumentID: doc.ID,
			Category:   doc.Category,
			FileName:   doc.FileName,
		},
	})

	return doc, nil
}

// Delete removes the metadata row first, then the blob. A failed blob delete
// leaves an orphan blob, which is logged, never a dangling row.
func (s *SubmissionService) Delete(ctx context.Context, userID, documentID string) error {
	doc, sub, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if sub.Completed {
		return apperrors.NewConflict("submission already completed", nil)
	}

	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return err
	}
	s.discardBlob(doc.StorageKey)
	return nil
}

// Open streams a stored document back to its owner.
func (s *SubmissionService) Open(ctx context.Context, userID, documentID string) (*domain.Document, io.ReadCloser, error) {
	doc, _, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.blobs.Open(doc.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return doc, reader, nil
}

// OpenAny streams any document, for admin review.
func (s *SubmissionService) OpenAny(ctx context.Context, documentID string) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("document", nil)
		}
		return nil, nil, err
	}
	reader, err := s.blobs.Open(doc.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return doc, reader, nil
}

// Status describes a user's submission for the dashboard.
type Status struct {
	Submission *domain.Submission
	Documents  []domain.Document
	Verified   map[domain.DocumentCategory]bool
	CanStart   bool
}

// Mine returns the caller's submission state. A user who has not uploaded
// anything yet gets an empty status rather than an error.
func (s *SubmissionService) Mine(ctx context.Context, userID string) (*Status, error) {
	sub, err := s.submissions.GetByUser(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &Status{Verified: map[domain.DocumentCategory]bool{}}, nil
		}
		return nil, err
	}

	docs, err := s.documents.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	verified := map[domain.DocumentCategory]bool{}
	for _, doc := range docs {
		if doc.Verified {
			verified[doc.Category] = true
		}
	}

	return &Status{
		Submission: sub,
		Documents:  docs,
		Verified:   verified,
		CanStart:   !sub.Completed && domain.CanStart(docs),
	}, nil
}

// Start flips the submission to completed once every required category holds
// a verified document.
func (s *SubmissionService) Start(ctx context.Context, userID string) (*domain.Submission, error) {
	sub, err := s.submissions.GetByUser(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("submission", nil)
		}
		return nil, err
	}
	if sub.Completed {
		return nil, apperrors.NewConflict("process already started", nil)
	}

	docs, err := s.documents.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if !domain.CanStart(docs) {
		return nil, apperrors.NewValidationError("required documents not yet verified", map[string]any{
			"required": domain.RequiredCategories,
		})
	}

	now := time.Now()
	sub.Completed = true
	sub.StartedAt = &now
	if err := s.submissions.Update(ctx, sub); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSubmissionStarted,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   events.SubmissionStartedPayload{SubmissionID: sub.ID},
	})

	return sub, nil
}

// Verify flips a document's verified flag, admin action.
func (s *SubmissionService) Verify(ctx context.Context, documentID string, verified bool) (*domain.Document, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("document", nil)
		}
		return nil, err
	}
	if err := s.documents.SetVerified(ctx, doc.ID, verified); err != nil {
		return nil, err
	}
	doc.Verified = verified
	return doc, nil
}

func (s *SubmissionService) ensureSubmission(ctx context.Context, userID string) (*domain.Submission, error) {
	sub, err := s.submissions.GetByUser(ctx, userID)
	if err == nil {
		return sub, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	sub = &domain.Submission{UserID: userID}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) ownedDocument(ctx context.Context, userID, documentID string) (*domain.Document, *domain.Submission, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("document", nil)
		}
		return nil, nil, err
	}

	sub, err := s.submissions.GetByID(ctx, doc.SubmissionID)
	if err != nil {
		return nil, nil, err
	}
	if sub.UserID != userID {
		return nil, nil, apperrors.NewForbidden("document belongs to another user")
	}
	return doc, sub, nil
}

func (s *SubmissionService) discardBlob(key string) {
	if err := s.blobs.Delete(key); err != nil {
		s.logger.Warn("orphan blob left in storage", zap.String("storage_key", key), zap.Error(err))
	}
}
