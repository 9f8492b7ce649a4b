package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/service"
)

// ChangelogHandler serves the public release notes.
type ChangelogHandler struct {
	changelog *service.ChangelogService
}

// NewChangelogHandler constructs handler.
func NewChangelogHandler(changelogService *service.ChangelogService) *ChangelogHandler {
	return &ChangelogHandler{changelog: changelogService}
}

// List handles GET /api/v1/changelog.
func (h *ChangelogHandler) List(c *fiber.Ctx) error {
	releases, err := h.changelog.Releases(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.ChangelogReleaseResponse, 0, len(releases))
	for _, rel := range releases {
		out = append(out, dto.NewChangelogReleaseResponse(rel))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Version handles GET /api/v1/changelog/version.
func (h *ChangelogHandler) Version(c *fiber.Ctx) error {
	current, err := h.changelog.CurrentVersion(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VersionResponse{Version: current}})
}
