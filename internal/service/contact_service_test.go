package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/exemption-service/internal/events"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

func TestContactSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid message is stored and announced", func(t *testing.T) {
		repo := &fakeContactRepo{}
		dispatcher := &recordingDispatcher{}
		svc := NewContactService(repo, dispatcher)

		msg, err := svc.Submit(ctx, "  Jamie Doe ", "jamie@example.test", "My camper van import question.")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if msg.Name != "Jamie Doe" {
			t.Errorf("name = %q, want trimmed", msg.Name)
		}
		if len(repo.created) != 1 {
			t.Fatalf("stored = %d, want 1", len(repo.created))
		}
		types := dispatcher.typesSeen()
		if len(types) != 1 || types[0] != events.EventContactReceived {
			t.Errorf("events = %v", types)
		}
	})

	t.Run("invalid input never reaches storage", func(t *testing.T) {
		cases := []struct {
			name    string
			from    string
			email   string
			message string
			field   string
		}{
			{"short message", "Jamie", "jamie@example.test", "too short", "message"},
			{"nine runes with padding", "Jamie", "jamie@example.test", "   ok then   ", "message"},
			{"missing name", "", "jamie@example.test", "long enough question here", "name"},
			{"bad email", "Jamie", "not-an-address", "long enough question here", "email"},
			{"empty email", "Jamie", "", "long enough question here", "email"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				repo := &fakeContactRepo{}
				dispatcher := &recordingDispatcher{}
				svc := NewContactService(repo, dispatcher)

				_, err := svc.Submit(ctx, tc.from, tc.email, tc.message)
				var derr *apperrors.DomainError
				if !errors.As(err, &derr) || derr.Code != "VALIDATION_FAILED" {
					t.Fatalf("err = %v, want VALIDATION_FAILED", err)
				}
				if _, ok := derr.Details[tc.field]; !ok {
					t.Errorf("details = %v, want %q flagged", derr.Details, tc.field)
				}
				if len(repo.created) != 0 {
					t.Errorf("invalid message persisted")
				}
				if len(dispatcher.typesSeen()) != 0 {
					t.Errorf("event published for invalid message")
				}
			})
		}
	})

	t.Run("exactly ten runes passes", func(t *testing.T) {
		repo := &fakeContactRepo{}
		svc := NewContactService(repo, &recordingDispatcher{})

		if _, err := svc.Submit(ctx, "Jamie", "jamie@example.test", "0123456789"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	})
}
