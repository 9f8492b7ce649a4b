package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// SubmissionsHandler exposes the document intake endpoints.
type SubmissionsHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionsHandler constructs handler.
func NewSubmissionsHandler(submissionService *service.SubmissionService) *SubmissionsHandler {
	return &SubmissionsHandler{submissions: submissionService}
}

// Upload handles POST /api/v1/documents (multipart form: category, file).
func (h *SubmissionsHandler) Upload(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	category := c.FormValue("category")
	if category == "" {
		return apperrors.NewValidationError("category required", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	doc, err := h.submissions.Upload(c.UserContext(), principal.User.ID, service.UploadInput{
		Category: domain.DocumentCategory(category),
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Content:  file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDocumentResponse(doc)})
}

// Delete handles DELETE /api/v1/documents/:id.
func (h *SubmissionsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.submissions.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Download handles GET /api/v1/documents/:id/content.
func (h *SubmissionsHandler) Download(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	doc, reader, err := h.submissions.Open(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}

	c.Set("Content-Type", doc.MimeType)
	c.Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	return c.SendStream(reader)
}

// Mine handles GET /api/v1/submissions/mine.
func (h *SubmissionsHandler) Mine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	status, err := h.submissions.Mine(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubmissionStatusResponse(status)})
}

// Start handles POST /api/v1/submissions/start.
func (h *SubmissionsHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	sub, err := h.submissions.Start(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"submission_id": sub.ID,
		"completed":     sub.Completed,
		"started_at":    sub.StartedAt,
	}})
}
