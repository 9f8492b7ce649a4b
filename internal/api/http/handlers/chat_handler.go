package handlers

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// ChatHandler exposes the applicant inbox.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chatService}
}

// Send handles POST /api/v1/chat/messages.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChatSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.chat.Send(c.UserContext(), principal.User.ID, domain.ChatSenderUser, principal.User.ID, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChatMessageResponse(msg)})
}

// List handles GET /api/v1/chat/messages?after=RFC3339.
func (h *ChatHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("after must be RFC3339", nil)
		}
		after = &parsed
	}

	messages, err := h.chat.List(c.UserContext(), principal.User.ID, after, c.QueryInt("limit"))
	if err != nil {
		return err
	}

	out := make([]dto.ChatMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, dto.NewChatMessageResponse(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Stream handles GET /api/v1/chat/stream as server-sent events. New inbox
// messages are pushed as they arrive; a comment ping keeps the connection
// alive through proxies.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.chat.Subscribe(ctx, principal.User.ID)
	if err != nil {
		cancel()
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sub.Close()

		ping := time.NewTicker(25 * time.Second)
		defer ping.Stop()

		ch := sub.Channel()
		for {
			select {
			case msg, open := <-ch:
				if !open {
					return
				}
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg.Payload)
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}
