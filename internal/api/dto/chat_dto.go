package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/repository"
)

// ChatSendRequest payload.
type ChatSendRequest struct {
	Body string `json:"body"`
}

// ChatMessageResponse is one inbox entry.
type ChatMessageResponse struct {
	ID        string            `json:"id"`
	Sender    domain.ChatSender `json:"sender"`
	Body      string            `json:"body"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewChatMessageResponse maps a domain message.
func NewChatMessageResponse(m *domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Sender:    m.Sender,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// ChatThreadResponse is one active inbox in the admin console.
type ChatThreadResponse struct {
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
	MessageCount  int64     `json:"message_count"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// NewChatThreadResponse maps a repository thread row.
func NewChatThreadResponse(t repository.ChatThread) ChatThreadResponse {
	return ChatThreadResponse{
		UserID:        t.UserID,
		UserName:      t.UserName,
		UserEmail:     t.UserEmail,
		MessageCount:  t.MessageCount,
		LastMessageAt: t.LastMessageAt,
	}
}
