package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/repository"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

const chatChannelPrefix = "chat:"

// ChatService manages the per-user inbox and its realtime fan-out.
type ChatService struct {
	messages   repository.ChatMessageRepository
	users      repository.UserRepository
	redis      *redis.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewChatService constructs the service. The redis client may be nil, in
// which case messages are persisted but not fanned out.
func NewChatService(messages repository.ChatMessageRepository, users repository.UserRepository, redisClient *redis.Client, dispatcher events.Dispatcher, logger *zap.Logger) *ChatService {
	return &ChatService{
		messages:   messages,
		users:      users,
		redis:      redisClient,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Send appends a message to the user's inbox and publishes it to the
// realtime channel after the insert commits.
func (s *ChatService) Send(ctx context.Context, userID string, sender domain.ChatSender, senderID, body string) (*domain.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	if len(body) > 4000 {
		return nil, apperrors.NewValidationError("message too long", map[string]any{"max_chars": 4000})
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, apperrors.MapError(err)
	}

	msg := &domain.ChatMessage{
		UserID:   userID,
		Sender:   sender,
		SenderID: senderID,
		Body:     body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publish(ctx, msg)

	preview := msg.Body
	if runes := []rune(preview); len(runes) > 80 {
		preview = string(runes[:80])
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventChatMessageAdded,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload: events.ChatMessageAddedPayload{
			MessageID:   msg.ID,
			Sender:      msg.Sender,
			BodyPreview: preview,
		},
	})

	return msg, nil
}

// List returns inbox messages, optionally only those after a given instant
// (the polling path).
func (s *ChatService) List(ctx context.Context, userID string, after *time.Time, limit int) ([]domain.ChatMessage, error) {
	return s.messages.ListByUser(ctx, userID, after, limit)
}

// Threads lists active inboxes for the admin console.
func (s *ChatService) Threads(ctx context.Context, limit, offset int) ([]repository.ChatThread, error) {
	return s.messages.ListThreads(ctx, limit, offset)
}

// Subscribe opens a realtime subscription on the user's channel. The caller
// must Close the returned PubSub when done.
func (s *ChatService) Subscribe(ctx context.Context, userID string) (*redis.PubSub, error) {
	if s.redis == nil {
		return nil, apperrors.NewDomainError("STREAM_UNAVAILABLE", "realtime stream not configured", 503, nil)
	}
	return s.redis.Subscribe(ctx, chatChannelPrefix+userID), nil
}

func (s *ChatService) publish(ctx context.Context, msg *domain.ChatMessage) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"id":         msg.ID,
		"user_id":    msg.UserID,
		"sender":     msg.Sender,
		"body":       msg.Body,
		"created_at": msg.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, chatChannelPrefix+msg.UserID, payload).Err(); err != nil {
		s.logger.Warn("chat publish failed", zap.String("user_id", msg.UserID), zap.Error(err))
	}
}
