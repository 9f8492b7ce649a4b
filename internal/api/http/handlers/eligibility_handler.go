package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// EligibilityHandler exposes the questionnaire and verdict endpoints.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
}

// NewEligibilityHandler constructs handler.
func NewEligibilityHandler(eligibilityService *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibilityService}
}

// Questions handles GET /api/v1/eligibility/questions.
func (h *EligibilityHandler) Questions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.eligibility.Questions()})
}

// Evaluate handles POST /api/v1/eligibility/evaluate. The check is
// anonymous: nothing is persisted.
func (h *EligibilityHandler) Evaluate(c *fiber.Ctx) error {
	var req dto.EligibilityAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	verdict, err := h.eligibility.Evaluate(req.AnswerSet())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EligibilityVerdictResponse{IsEligible: verdict}})
}

// Submit handles POST /api/v1/eligibility/answers.
func (h *EligibilityHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.EligibilityAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.eligibility.Submit(c.UserContext(), principal.User.ID, req.AnswerSet())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEligibilityResultResponse(record)})
}

// Result handles GET /api/v1/eligibility/result.
func (h *EligibilityHandler) Result(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	record, err := h.eligibility.Result(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEligibilityResultResponse(record)})
}
