package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "dealdesk/docs"
	"dealdesk/internal/config"
	"dealdesk/internal/database"
	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
	"dealdesk/internal/realtime"
	"dealdesk/internal/repositories"
	"dealdesk/internal/routes"
	"dealdesk/internal/services"
	"dealdesk/internal/storage"
)

// App is a fully wired server. Close releases the database.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sql.DB
	Store   storage.Store
	Metrics *middleware.Metrics
	Events  *realtime.DealHub
	Router  *gin.Engine

	Users services.UserService
}

// NewLogger builds the production zap logger; level "debug" switches to the
// development encoder.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// New opens the database, applies the schema and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	// === DB ===
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// === Blob store ===
	store, err := storage.New(ctx, cfg.Files)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("files store: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Store:   store,
		Metrics: middleware.NewMetrics(),
		Events:  realtime.NewDealHub(32),
	}
	a.Router = a.buildRouter()
	logger.Info("app ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("files_driver", string(store.Driver())),
	)
	return a, nil
}

func (a *App) buildRouter() *gin.Engine {
	cfg, db, logger := a.Config, a.DB, a.Logger
	clock := services.SystemClock

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	pipelineRepo := repositories.NewPipelineRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	noteRepo := repositories.NewNoteRepository(db)
	fileRepo := repositories.NewFileRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// === Services ===
	authService := services.NewAuthService(userRepo, cfg.Auth, clock, logger)
	emailService := services.NewEmailService(cfg.Email, logger)
	userService := services.NewUserService(userRepo, authService, clock)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService, cfg.Auth.ResetTTL, clock, logger)
	dealService := services.NewDealService(dealRepo, a.notifier(), a.Metrics.DealConflict, clock, logger)
	a.Users = userService

	// === Handlers ===
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, userService, resetService, logger),
		Users:         handlers.NewUserHandler(userService, logger),
		Pipelines:     handlers.NewPipelineHandler(services.NewPipelineService(pipelineRepo, clock), logger),
		Deals:         handlers.NewDealHandler(dealService, a.Events, logger),
		Contacts:      handlers.NewContactHandler(services.NewContactService(contactRepo, clock), logger),
		Organizations: handlers.NewOrganizationHandler(services.NewOrganizationService(orgRepo, clock), logger),
		Activities:    handlers.NewActivityHandler(services.NewActivityService(activityRepo, clock), logger),
		Notes:         handlers.NewNoteHandler(services.NewNoteService(noteRepo, clock), logger),
		Files:         handlers.NewFileHandler(services.NewFileService(fileRepo, a.Store, cfg.Files.MaxSize, clock, logger), logger),
		Webhooks:      handlers.NewWebhookHandler(services.NewWebhookService(webhookRepo, clock), logger),
		Reports: handlers.NewReportHandler(
			services.NewReportService(reportRepo, pipelineRepo, clock),
			services.NewSearchService(dealRepo, contactRepo, orgRepo),
			logger,
		),
	}

	// === Gin ===
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(a.Metrics.Middleware())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	router.MaxMultipartMemory = 8 << 20

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return routes.SetupRoutes(router, h, []byte(cfg.Auth.JWTSecret), a.Metrics)
}

// notifier returns the Telegram notifier when a bot token is configured.
// A bot that cannot be reached at startup disables notifications.
func (a *App) notifier() services.DealNotifier {
	tg := a.Config.Telegram
	if tg.BotToken == "" || tg.ChatID == 0 {
		return services.NoopNotifier{}
	}
	n, err := services.NewTelegramNotifier(tg.BotToken, tg.APIEndpoint, tg.ChatID)
	if err != nil {
		a.Logger.Warn("telegram notifications disabled", zap.Error(err))
		return services.NoopNotifier{}
	}
	return n
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "If-Match"},
		ExposeHeaders: []string{"ETag", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Run listens on the configured port and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.Config.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then drains in-flight
// requests for up to the configured shutdown timeout. Open deal event
// streams are ended as soon as shutdown starts.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(a.Events.Close)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
