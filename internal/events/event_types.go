package events

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventEligibilityRecorded EventType = "eligibility_recorded"
	EventPaymentCaptured     EventType = "payment_captured"
	EventDocumentUploaded    EventType = "document_uploaded"
	EventSubmissionStarted   EventType = "submission_started"
	EventChatMessageAdded    EventType = "chat_message_added"
	EventContactReceived     EventType = "contact_received"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
}

// EligibilityRecordedPayload payload.
type EligibilityRecordedPayload struct {
	IsEligible bool `json:"is_eligible"`
}

// PaymentCapturedPayload payload.
type PaymentCapturedPayload struct {
	OrderID     string `json:"order_id"`
	CaptureID   string `json:"capture_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// DocumentUploadedPayload payload.
type DocumentUploadedPayload struct {
	DocumentID string                  `json:"document_id"`
	Category   domain.DocumentCategory `json:"category"`
	FileName   string                  `json:"file_name"`
}

// SubmissionStartedPayload payload.
type SubmissionStartedPayload struct {
	SubmissionID string `json:"submission_id"`
}

// ChatMessageAddedPayload payload.
type ChatMessageAddedPayload struct {
	MessageID   string            `json:"message_id"`
	Sender      domain.ChatSender `json:"sender"`
	BodyPreview string            `json:"body_preview"`
}

// ContactReceivedPayload payload.
type ContactReceivedPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
