package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"qaforum_backend/database"
	"qaforum_backend/internal/auth"
	"qaforum_backend/internal/config"
	"qaforum_backend/internal/email"
	"qaforum_backend/internal/handlers"
	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/middleware"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/ratelimit"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/routes"
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/validator"
	"qaforum_backend/internal/workers"
	"qaforum_backend/pkg/apperrors"
	"qaforum_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Limiter - лимитер, хранилище которого чистит MaintenanceWorker
type Limiter interface {
	ratelimit.Limiter
	workers.HitCleaner
}

// Options - подмены для тестов и локальной разработки
type Options struct {
	// EmailProvider заменяет SMTP; если задан, e-mail включается независимо от конфига
	EmailProvider email.Provider
	Now           func() time.Time
}

type App struct {
	cfg         *config.Config
	db          *gorm.DB
	router      *gin.Engine
	services    *services.ServiceContainer
	wsManager   *ws.Manager
	limiter     Limiter
	emailWorker *workers.EmailWorker
	maintenance *workers.MaintenanceWorker
}

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	application, err := New(cfg, db, Options{})
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      application.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server exited")
}

// New собирает сервисы, хэндлеры и роутер. Фоновые задачи запускает Start.
func New(cfg *config.Config, db *gorm.DB, opts Options) (*App, error) {
	apperrors.SetDebug(cfg.Server.Env == "development")
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{cfg: cfg, db: db}

	a.limiter = newLimiter(cfg, db)
	a.wsManager = ws.NewManager()

	containerOpts := services.ContainerOptions{
		Publisher:       a.wsManager,
		NotificationTTL: cfg.Notifications.TTL,
		Now:             opts.Now,
	}

	emailTypes := parseEmailTypes(cfg.Notifications.EmailTypes)
	if provider, err := newEmailProvider(cfg, opts); err != nil {
		return nil, err
	} else if provider != nil {
		renderer := email.NewTemplateManager()
		if cfg.Email.TemplatesDir != "" {
			if err := renderer.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
				return nil, fmt.Errorf("failed to load email templates: %w", err)
			}
		}
		a.emailWorker = workers.NewEmailWorker(
			db,
			provider,
			renderer,
			repositories.NewNotificationRepository(),
			repositories.NewUserRepository(),
			emailTypes,
			cfg.Email.BaseURL,
			cfg.Email.QueueSize,
		)
		containerOpts.Mailer = a.emailWorker
		containerOpts.EmailTypes = emailTypes
	} else {
		logger.Warn("Email delivery disabled")
	}

	a.services = services.NewServiceContainer(containerOpts)
	a.maintenance = workers.NewMaintenanceWorker(db, a.services.NotificationService, a.limiter, cfg.Notifications.SweepInterval, cfg.RateLimit.Window)

	a.router = a.setupRouter()
	return a, nil
}

// Start запускает hub, e-mail и maintenance воркеры до отмены ctx
func (a *App) Start(ctx context.Context) {
	go a.wsManager.Run(ctx)
	if a.emailWorker != nil {
		a.emailWorker.Start(ctx)
	}
	a.maintenance.Start(ctx)
	logger.Info("Background workers started")
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) setupRouter() *gin.Engine {
	userRepo := repositories.NewUserRepository()
	verifier := auth.NewChainVerifier(
		auth.NewJWTVerifier(a.cfg.JWT.Secret, a.db, userRepo),
		auth.NewAPITokenVerifier(a.db, userRepo),
	)

	rules := map[string]ratelimit.Rule{
		handlers.ActionQuestion: {Limit: a.cfg.RateLimit.Questions, Window: a.cfg.RateLimit.Window},
		handlers.ActionAnswer:   {Limit: a.cfg.RateLimit.Answers, Window: a.cfg.RateLimit.Window},
		handlers.ActionVote:     {Limit: a.cfg.RateLimit.Votes, Window: a.cfg.RateLimit.Window},
		handlers.ActionComment:  {Limit: a.cfg.RateLimit.Comments, Window: a.cfg.RateLimit.Window},
	}
	guards := &handlers.RouteGuards{
		Auth: middleware.AuthMiddleware(verifier),
		Limit: func(action string) gin.HandlerFunc {
			return middleware.RateLimit(a.limiter, action, rules[action])
		},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(a.cfg.WebSocket.AllowedOrigins))
	router.Use(middleware.DBMiddleware(a.db))

	appHandlers := handlers.NewAppHandlers(a.db, a.services, validator.New())
	wsHandler := ws.NewHandler(a.wsManager, a.services.NotificationService, a.db, ws.HandlerConfig{
		SendBuffer:     a.cfg.WebSocket.SendBuffer,
		PingInterval:   a.cfg.WebSocket.PingInterval,
		AllowedOrigins: a.cfg.WebSocket.AllowedOrigins,
	})

	routes.RegisterRoutes(router, appHandlers, guards, wsHandler)
	return router
}

func newLimiter(cfg *config.Config, db *gorm.DB) Limiter {
	if cfg.RateLimit.Store == "database" {
		logger.Info("Rate limiter: database store")
		return ratelimit.NewStoreLimiter(db, repositories.NewRateLimitRepository())
	}
	logger.Info("Rate limiter: in-memory store")
	return ratelimit.NewMemoryLimiter()
}

func newEmailProvider(cfg *config.Config, opts Options) (email.Provider, error) {
	if opts.EmailProvider != nil {
		return opts.EmailProvider, nil
	}
	if !cfg.Email.Enabled {
		return nil, nil
	}
	provider := email.NewSMTPProvider(email.ConfigFrom(cfg))
	if err := provider.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}
	return provider, nil
}

func parseEmailTypes(raw []string) []models.NotificationType {
	types := make([]models.NotificationType, 0, len(raw))
	for _, r := range raw {
		t := models.NotificationType(r)
		if !t.IsValid() {
			logger.Warn("Unknown notification type in email_types, skipping", "type", r)
			continue
		}
		types = append(types, t)
	}
	return types
}
