package dto

import (
	"strings"

	"github.com/spec-kit/exemption-service/internal/service"
)

// AssistantRequest carries the conversation so far. Clients may send either
// a full messages array or a bare single-turn message.
type AssistantRequest struct {
	Message  string                     `json:"message"`
	Messages []service.AssistantMessage `json:"messages"`
}

// Conversation normalizes both accepted request shapes into message turns.
func (r AssistantRequest) Conversation() []service.AssistantMessage {
	if len(r.Messages) > 0 {
		return r.Messages
	}
	if strings.TrimSpace(r.Message) != "" {
		return []service.AssistantMessage{{Role: "user", Content: r.Message}}
	}
	return nil
}

// AssistantResponse is the assistant's reply.
type AssistantResponse struct {
	Reply string `json:"reply"`
}
