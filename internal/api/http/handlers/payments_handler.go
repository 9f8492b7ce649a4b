package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// PaymentsHandler drives the flat-fee checkout flow.
type PaymentsHandler struct {
	checkout *service.CheckoutService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(checkoutService *service.CheckoutService) *PaymentsHandler {
	return &PaymentsHandler{checkout: checkoutService}
}

// Create handles POST /api/v1/payments.
func (h *PaymentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewValidationError("user account required", nil)
	}

	order, err := h.checkout.StartCheckout(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPaymentOrderResponse(order)})
}

// Pending handles GET /api/v1/payments/pending.
func (h *PaymentsHandler) Pending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	order, err := h.checkout.PendingOrder(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	if order == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentOrderResponse(order)})
}

// Return handles GET /api/v1/payments/return, the provider redirect after
// the buyer approves (or abandons) the order. Always redirects.
func (h *PaymentsHandler) Return(c *fiber.Ctx) error {
	providerOrderID := strings.TrimSpace(c.Query("token"))
	target := h.checkout.HandleReturn(c.UserContext(), providerOrderID)
	return c.Redirect(target, http.StatusFound)
}

// Cancel handles GET /api/v1/payments/cancel.
func (h *PaymentsHandler) Cancel(c *fiber.Ctx) error {
	providerOrderID := strings.TrimSpace(c.Query("token"))
	target := h.checkout.HandleCancel(c.UserContext(), providerOrderID)
	return c.Redirect(target, http.StatusFound)
}
