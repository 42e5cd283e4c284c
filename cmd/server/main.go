// @title           Glojourn Case Management API
// @version         1.0
// @description     Immigration case management: clients open a visa case, coordinators and managers review it, documents are stored privately and shared through signed URLs.
// @contact.name    Aldo Rifki Putra
// @contact.email   aldoetobex@gmail.com
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	_ "github.com/aldoetobex/glojourn-backend/docs"
	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/internal/assignments"
	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/internal/automation"
	"github.com/aldoetobex/glojourn-backend/internal/cases"
	"github.com/aldoetobex/glojourn-backend/internal/config"
	"github.com/aldoetobex/glojourn-backend/internal/documents"
	"github.com/aldoetobex/glojourn-backend/internal/logging"
	"github.com/aldoetobex/glojourn-backend/internal/metrics"
	"github.com/aldoetobex/glojourn-backend/internal/middleware"
	"github.com/aldoetobex/glojourn-backend/internal/storage"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/internal/users"
	"github.com/aldoetobex/glojourn-backend/pkg/database"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	st := store.NewGorm(db)

	var files storage.Store
	if cfg.SupabaseURL != "" {
		files = storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	} else {
		slog.Warn("SUPABASE_URL not set, documents are kept in memory")
		files = storage.NewMemory()
	}

	var exec automation.Executor = automation.LogExecutor{}
	if len(cfg.KafkaBrokers) > 0 {
		k := automation.NewKafkaExecutor(cfg.KafkaBrokers, cfg.AutomationTopic)
		defer func() {
			if err := k.Close(); err != nil {
				slog.Error("kafka writer close error", "error", err)
			}
		}()
		exec = k
	}
	engine := automation.NewEngine(st, exec)

	ev := access.New(nil)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	authH := auth.NewHandler(st, tokens)
	caseH := cases.NewHandler(cases.NewService(st, ev, files, engine))
	docH := documents.NewHandler(
		documents.NewService(st, ev, files, cfg.StorageFolder, cfg.SignedURLTTL),
		cfg.MaxFileSize, cfg.AllowedFileTypes,
	)
	assignH := assignments.NewHandler(assignments.NewService(st))
	userH := users.NewHandler(users.NewService(st, ev))

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
		BodyLimit:    int(cfg.MaxFileSize) + 1<<20,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", metrics.Handler())
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	api := app.Group("/api")

	// Auth
	api.Post("/auth/signup", authH.Signup)
	api.Post("/auth/login", authH.Login)

	protected := api.Group("", auth.RequireAuth(tokens), auth.RequireActive(st))
	protected.Get("/auth/me", authH.Me)

	// Cases
	protected.Post("/cases", auth.RequireRole(models.RoleClient, models.RoleAdmin), caseH.Create)
	protected.Get("/cases", caseH.List)
	protected.Get("/cases/mine", auth.RequireRole(models.RoleClient), caseH.Mine)
	protected.Get("/cases/:id", caseH.Get)
	protected.Put("/cases/:id", caseH.Update)
	protected.Delete("/cases/:id", auth.RequireRole(models.RoleAdmin), caseH.Delete)
	protected.Post("/cases/:id/notes", caseH.AddNote)
	protected.Get("/cases/:id/documents", docH.ListForCase)

	// Documents
	protected.Post("/documents/upload", docH.Upload)
	protected.Get("/documents/:id/url", docH.SignedURL)
	protected.Post("/document-requests", auth.RequireStaff(), docH.CreateRequest)
	protected.Get("/document-requests", docH.ListRequests)

	// Assignments
	protected.Post("/assignments", auth.RequireStaff(), assignH.AssignManager)
	protected.Get("/assignments/coordinators", auth.RequireRole(models.RoleAdmin, models.RoleManager), assignH.Coordinators)
	protected.Get("/assignments/managers", auth.RequireStaff(), assignH.Managers)
	protected.Get("/assignments/workload", auth.RequireRole(models.RoleAdmin, models.RoleManager), assignH.Workload)

	// Users
	protected.Get("/users", userH.List)
	protected.Post("/users", auth.RequireRole(models.RoleAdmin), userH.Create)
	protected.Patch("/users/:id/active", userH.SetActive)
	protected.Patch("/users/:id/role", auth.RequireRole(models.RoleAdmin), userH.ChangeRole)
	protected.Delete("/users/:id", auth.RequireRole(models.RoleAdmin), userH.Delete)
	protected.Get("/admin/stats", auth.RequireStaff(), userH.Stats)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}
	slog.Info("server stopped")
}
