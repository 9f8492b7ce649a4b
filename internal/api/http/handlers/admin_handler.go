package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/dto"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/repository"
	"github.com/spec-kit/exemption-service/internal/service"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// AdminHandler exposes the back-office console endpoints.
type AdminHandler struct {
	auth        *service.AuthService
	admin       *service.AdminService
	submissions *service.SubmissionService
	chat        *service.ChatService
	changelog   *service.ChangelogService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(
	authService *service.AuthService,
	adminService *service.AdminService,
	submissionService *service.SubmissionService,
	chatService *service.ChatService,
	changelogService *service.ChangelogService,
) *AdminHandler {
	return &AdminHandler{
		auth:        authService,
		admin:       adminService,
		submissions: submissionService,
		chat:        chatService,
		changelog:   changelogService,
	}
}

// Login handles POST /api/v1/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	admin, token, exp, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"admin": fiber.Map{
				"id":    admin.ID,
				"name":  admin.Name,
				"email": admin.Email,
				"role":  admin.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("payment_status"); raw != "" {
		status := domain.PaymentStatus(strings.ToUpper(raw))
		filter.PaymentStatus = &status
	}
	if raw := c.Query("is_eligible"); raw != "" {
		eligible := raw == "true"
		filter.IsEligible = &eligible
	}
	if raw := strings.TrimSpace(c.Query("search")); raw != "" {
		filter.SearchTerm = &raw
	}

	users, total, err := h.admin.ListUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}

	resp := dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users)), Total: total}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetUser handles GET /api/v1/admin/users/:id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	detail, err := h.admin.GetUserDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	resp := dto.AdminUserDetailResponse{User: dto.NewUserResponse(detail.User)}
	if detail.Eligibility != nil {
		r := dto.NewEligibilityResultResponse(detail.Eligibility)
		resp.Eligibility = &r
	}
	if detail.Order != nil {
		r := dto.NewPaymentOrderResponse(detail.Order)
		resp.Order = &r
	}
	if detail.Submission != nil {
		status := &service.Status{
			Submission: detail.Submission,
			Documents:  detail.Documents,
			Verified:   map[domain.DocumentCategory]bool{},
			CanStart:   domain.CanStart(detail.Documents),
		}
		for _, doc := range detail.Documents {
			if doc.Verified {
				status.Verified[doc.Category] = true
			}
		}
		r := dto.NewSubmissionStatusResponse(status)
		resp.Submission = &r
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SuspendUser handles PATCH /api/v1/admin/users/:id/status.
func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	var req dto.SuspendUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.admin.SetUserSuspended(c.UserContext(), c.Params("id"), req.Suspend)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListSubmissions handles GET /api/v1/admin/submissions.
func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	filter := repository.SubmissionFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("completed"); raw != "" {
		completed := raw == "true"
		filter.Completed = &completed
	}

	summaries, err := h.admin.ListSubmissions(c.UserContext(), filter)
	if err != nil {
		return err
	}

	out := make([]dto.SubmissionSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, dto.NewSubmissionSummaryResponse(summary))
	}
	return c.JSON(fiber.Map{"data": out})
}

// VerifyDocument handles PATCH /api/v1/admin/documents/:id/verify.
func (h *AdminHandler) VerifyDocument(c *fiber.Ctx) error {
	var req dto.VerifyDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	doc, err := h.submissions.Verify(c.UserContext(), c.Params("id"), req.Verified)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDocumentResponse(doc)})
}

// DownloadDocument handles GET /api/v1/admin/documents/:id/content.
func (h *AdminHandler) DownloadDocument(c *fiber.Ctx) error {
	doc, reader, err := h.submissions.OpenAny(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	c.Set("Content-Type", doc.MimeType)
	c.Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	return c.SendStream(reader)
}

// ListChatThreads handles GET /api/v1/admin/chat/threads.
func (h *AdminHandler) ListChatThreads(c *fiber.Ctx) error {
	threads, err := h.chat.Threads(c.UserContext(), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	out := make([]dto.ChatThreadResponse, 0, len(threads))
	for _, thread := range threads {
		out = append(out, dto.NewChatThreadResponse(thread))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ListChatMessages handles GET /api/v1/admin/chat/:userId/messages.
func (h *AdminHandler) ListChatMessages(c *fiber.Ctx) error {
	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("after must be RFC3339", nil)
		}
		after = &parsed
	}

	messages, err := h.chat.List(c.UserContext(), c.Params("userId"), after, c.QueryInt("limit"))
	if err != nil {
		return err
	}

	out := make([]dto.ChatMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, dto.NewChatMessageResponse(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// SendChatMessage handles POST /api/v1/admin/chat/:userId/messages.
func (h *AdminHandler) SendChatMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChatSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.chat.Send(c.UserContext(), c.Params("userId"), domain.ChatSenderAdmin, principal.Admin.ID, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChatMessageResponse(msg)})
}

// AddChangelogEntry handles POST /api/v1/admin/changelog.
func (h *AdminHandler) AddChangelogEntry(c *fiber.Ctx) error {
	var req dto.ChangelogAddRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	in := service.AddInput{
		Version:  req.Version,
		Category: req.Category,
		Message:  req.Message,
		Bump:     req.Bump,
	}
	if req.ReleasedOn != nil {
		in.ReleasedOn = *req.ReleasedOn
	}

	entry, err := h.changelog.Add(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":          entry.ID,
		"version":     entry.Version,
		"released_on": entry.ReleasedOn,
		"category":    entry.Category,
		"message":     entry.Message,
	}})
}
