package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// AssistantHandler proxies assistant conversations.
type AssistantHandler struct {
	assistant *service.AssistantService
}

// NewAssistantHandler constructs handler.
func NewAssistantHandler(assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistantService}
}

// Complete handles POST /api/v1/assistant/chat.
func (h *AssistantHandler) Complete(c *fiber.Ctx) error {
	var req dto.AssistantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.assistant.Complete(c.UserContext(), req.Conversation())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssistantResponse{Reply: reply}})
}
