package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exemption-service/internal/api/http/handlers"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Eligibility    *handlers.EligibilityHandler
	Payments       *handlers.PaymentsHandler
	Submissions    *handlers.SubmissionsHandler
	Chat           *handlers.ChatHandler
	Changelog      *handlers.ChangelogHandler
	Contact        *handlers.ContactHandler
	Assistant      *handlers.AssistantHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	// Public surface.
	api.Post("/auth/register", cfg.Users.Register)
	api.Post("/auth/verify-email", cfg.Users.VerifyEmail)
	api.Post("/auth/login", cfg.Users.Login)
	api.Post("/auth/password/reset/request", cfg.Users.RequestPasswordReset)
	api.Post("/auth/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	api.Get("/eligibility/questions", cfg.Eligibility.Questions)
	api.Post("/eligibility/evaluate", cfg.Eligibility.Evaluate)

	api.Get("/payments/return", cfg.Payments.Return)
	api.Get("/payments/cancel", cfg.Payments.Cancel)

	api.Get("/changelog", cfg.Changelog.List)
	api.Get("/changelog/version", cfg.Changelog.Version)
	api.Post("/contact", cfg.Contact.Submit)
	api.Post("/assistant/chat", cfg.Assistant.Complete)

	// Back-office surface. Registered before the applicant group so its
	// prefix middleware never runs for admin requests.
	api.Post("/admin/login", cfg.Admin.Login)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle,
		auth.RequireAdminRole(domain.AdminRoleAdmin, domain.AdminRoleSupport))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/users/:id", cfg.Admin.GetUser)
	admin.Get("/submissions", cfg.Admin.ListSubmissions)
	admin.Get("/documents/:id/content", cfg.Admin.DownloadDocument)
	admin.Get("/chat/threads", cfg.Admin.ListChatThreads)
	admin.Get("/chat/:userId/messages", cfg.Admin.ListChatMessages)
	admin.Post("/chat/:userId/messages", cfg.Admin.SendChatMessage)

	// Mutating console actions need the full admin role.
	elevated := api.Group("/admin", cfg.AuthMiddleware.Handle,
		auth.RequireAdminRole(domain.AdminRoleAdmin))
	elevated.Patch("/users/:id/status", cfg.Admin.SuspendUser)
	elevated.Patch("/documents/:id/verify", cfg.Admin.VerifyDocument)
	elevated.Post("/changelog", cfg.Admin.AddChangelogEntry)

	// Applicant surface, last: its group middleware matches every /api/v1
	// path, so all other routes must already be in the stack ahead of it.
	user := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	user.Post("/auth/logout", cfg.Users.Logout)
	user.Post("/auth/password/change", cfg.Users.ChangePassword)
	user.Get("/me", cfg.Users.Me)
	user.Patch("/me", cfg.Users.UpdateMe)

	user.Post("/eligibility/answers", cfg.Eligibility.Submit)
	user.Get("/eligibility/result", cfg.Eligibility.Result)

	user.Post("/payments", cfg.Payments.Create)
	user.Get("/payments/pending", cfg.Payments.Pending)

	user.Post("/documents", cfg.Submissions.Upload)
	user.Delete("/documents/:id", cfg.Submissions.Delete)
	user.Get("/documents/:id/content", cfg.Submissions.Download)
	user.Get("/submissions/mine", cfg.Submissions.Mine)
	user.Post("/submissions/start", cfg.Submissions.Start)

	user.Post("/chat/messages", cfg.Chat.Send)
	user.Get("/chat/messages", cfg.Chat.List)
	user.Get("/chat/stream", cfg.Chat.Stream)
}
