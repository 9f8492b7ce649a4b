package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/repository"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

const contactMessageMinChars = 10

// ContactService handles the public contact form.
type ContactService struct {
	messages   repository.ContactRepository
	dispatcher events.Dispatcher
}

// NewContactService constructs the service.
func NewContactService(messages repository.ContactRepository, dispatcher events.Dispatcher) *ContactService {
	return &ContactService{messages: messages, dispatcher: dispatcher}
}

// Submit validates and stores one contact form message. Validation runs
// before anything is persisted or notified, so short messages never leave
// the process.
func (s *ContactService) Submit(ctx context.Context, name, email, message string) (*domain.ContactMessage, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)

	problems := map[string]any{}
	if name == "" {
		problems["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		problems["email"] = "invalid email address"
	}
	if len([]rune(message)) < contactMessageMinChars {
		problems["message"] = "must be at least 10 characters"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid contact form", problems)
	}

	msg := &domain.ContactMessage{Name: name, Email: email, Message: message}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventContactReceived,
		Timestamp: time.Now(),
		Payload: events.ContactReceivedPayload{
			Name:  msg.Name,
			Email: msg.Email,
		},
	})

	return msg, nil
}
