package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/exemption-service/internal/api/http"
	"github.com/spec-kit/exemption-service/internal/api/http/handlers"
	"github.com/spec-kit/exemption-service/internal/auth"
	"github.com/spec-kit/exemption-service/internal/config"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/observability"
	"github.com/spec-kit/exemption-service/internal/paypal"
	"github.com/spec-kit/exemption-service/internal/persistence"
	"github.com/spec-kit/exemption-service/internal/repository"
	"github.com/spec-kit/exemption-service/internal/service"
	"github.com/spec-kit/exemption-service/internal/storage"
	"github.com/spec-kit/exemption-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.App.Env,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.NewFileStore(cfg.Storage.Root)
	if err != nil {
		logger.Fatal("failed to init document store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	tokenRepo := repository.NewAccountTokenRepository(pool)
	eligibilityRepo := repository.NewEligibilityRepository(pool)
	paymentRepo := repository.NewPaymentOrderRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	chatRepo := repository.NewChatMessageRepository(pool)
	changelogRepo := repository.NewChangelogRepository(pool)
	contactRepo := repository.NewContactRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		AdminRepo:        adminRepo,
		AccountTokenRepo: tokenRepo,
		Dispatcher:       dispatcher,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, adminRepo)

	eligibilityService := service.NewEligibilityService(eligibilityRepo, userRepo, dispatcher)

	checkoutService := service.NewCheckoutService(cfg.Checkout, service.CheckoutDependencies{
		OrderRepo:  paymentRepo,
		UserRepo:   userRepo,
		Provider:   paypal.NewClient(cfg.PayPal),
		Dispatcher: dispatcher,
		Locker:     persistence.NewRedisLocker(redis.ClientHandle(), "checkout"),
	}, logger)

	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		SubmissionRepo: submissionRepo,
		DocumentRepo:   documentRepo,
		UserRepo:       userRepo,
		Blobs:          blobs,
		Dispatcher:     dispatcher,
	}, cfg.Storage.MaxUploadBytes(), logger)

	chatService := service.NewChatService(chatRepo, userRepo, redis.ClientHandle(), dispatcher, logger)
	changelogService := service.NewChangelogService(changelogRepo, redis.ClientHandle(), logger)
	contactService := service.NewContactService(contactRepo, dispatcher)
	assistantService := service.NewAssistantService(cfg.Assistant, logger)
	adminService := service.NewAdminService(service.AdminDependencies{
		UserRepo:        userRepo,
		EligibilityRepo: eligibilityRepo,
		PaymentRepo:     paymentRepo,
		SubmissionRepo:  submissionRepo,
		DocumentRepo:    documentRepo,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)
	worker.StartReconciliationWorker(ctx, checkoutService,
		time.Duration(cfg.Checkout.ReconcileIntervalMin)*time.Minute, logger)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Storage.MaxUploadBytes()) + 1024*1024,
	})

	if cfg.Sentry.DSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	}
	httptransport.RegisterMiddlewares(app, logger, cfg.App.CORSOrigins, cfg.App.RequestTimeout())
	observability.RegisterMetrics(app, cfg.App.Name)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Eligibility:    handlers.NewEligibilityHandler(eligibilityService),
		Payments:       handlers.NewPaymentsHandler(checkoutService),
		Submissions:    handlers.NewSubmissionsHandler(submissionService),
		Chat:           handlers.NewChatHandler(chatService),
		Changelog:      handlers.NewChangelogHandler(changelogService),
		Contact:        handlers.NewContactHandler(contactService),
		Assistant:      handlers.NewAssistantHandler(assistantService),
		Admin:          handlers.NewAdminHandler(authService, adminService, submissionService, chatService, changelogService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
