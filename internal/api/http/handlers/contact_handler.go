package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// ContactHandler accepts public contact form submissions.
type ContactHandler struct {
	contact *service.ContactService
}

// NewContactHandler constructs handler.
func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contactService}
}

// Submit handles POST /api/v1/contact.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.contact.Submit(c.UserContext(), req.Name, req.Email, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ContactResponse{ID: msg.ID}})
}
