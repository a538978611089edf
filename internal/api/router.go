// Package api provides HTTP routing for the GreenWipe server. It wires the
// services, the background anchor queue and the handlers into one gin engine.
package api

import (
	"context"
	"net/http"

	"github.com/MK-codes365/greenwipe/internal/api/handlers"
	"github.com/MK-codes365/greenwipe/internal/api/middleware"
	"github.com/MK-codes365/greenwipe/internal/auth"
	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/MK-codes365/greenwipe/internal/crypto"
	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/llm"
	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router is the HTTP handler of the server together with the anchor queue
// that outlives individual requests
type Router struct {
	engine *gin.Engine
	queue  *service.AnchorQueue
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// Start starts the background anchoring workers
func (r *Router) Start() {
	r.queue.Start()
}

// Stop cancels queued and in-flight anchoring and waits for the workers.
// Call it after the HTTP server has shut down and before closing the database.
func (r *Router) Stop() {
	r.queue.Stop()
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *database.Database, logger *zap.Logger) *Router {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(middleware.MetricsMiddleware())
	engine.Use(middleware.CORSMiddleware(cfg))

	userService := service.NewUserService(db, cfg)
	if err := userService.LoadJWTSecret(context.Background()); err != nil {
		logger.Warn("Failed to load stored JWT secret", zap.Error(err))
	}

	statsService := service.NewStatsService(db)
	anchorService := service.NewAnchorService(db, crypto.NewSimulatedAnchorIDGenerator(), cfg.Anchoring, logger)
	queue := service.NewAnchorQueue(anchorService, cfg.Anchoring.Workers, cfg.Anchoring.QueueSize, cfg.Anchoring.Timeout, logger)

	certOpts := []service.CertificateOption{
		service.WithWipeRecorder(statsService),
		service.WithDownloadRecorder(statsService),
	}
	if cfg.Anchoring.AutoAnchor {
		certOpts = append(certOpts, service.WithAnchorScheduler(queue))
	}
	certService := service.NewCertificateService(db, logger, certOpts...)

	var creator service.CertificateCreator = certService
	var completer llm.Completer
	if cfg.Suggestion.Enabled {
		client := llm.NewClient(cfg.Suggestion, logger)
		completer = client
		if cfg.Suggestion.AssistedCreation {
			creator = service.NewAssistedCreator(certService, client, logger)
		}
	}
	suggestionService := service.NewSuggestionService(completer, logger)

	setupHandler := handlers.NewSetupHandler(userService, logger)
	authHandler := handlers.NewAuthHandler(userService, logger)
	certHandler := handlers.NewCertificateHandler(certService, creator, anchorService, queue, logger)
	statsHandler := handlers.NewStatsHandler(statsService, logger)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionService, logger)
	healthHandler := handlers.NewHealthHandler(db, logger)

	engine.GET("/health/live", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(cfg))

	// Public routes
	{
		v1.GET("/setup/status", setupHandler.GetStatus)
		v1.POST("/setup", setupHandler.PerformSetup)
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/certificates/:id/verify", certHandler.VerifyCertificate)
		v1.POST("/certificates/:id/anchor", certHandler.AnchorCertificate)
		v1.GET("/certificates/:id/report", certHandler.DownloadReport)

		v1.POST("/suggestions", suggestionHandler.Suggest)

		v1.GET("/stats", statsHandler.GetStats)
		v1.GET("/stats/events", statsHandler.ListWipeEvents)
	}

	// Creation works anonymously and records the user when a token is sent
	v1.POST("/certificates", middleware.OptionalAuth(cfg), certHandler.CreateCertificate)

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/stats/wipes", statsHandler.RecordWipe)
		protected.POST("/stats/reset", middleware.RequireRole(auth.RoleAdmin), statsHandler.ResetStats)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Response{Success: false, Error: "not found"})
	})

	return &Router{
		engine: engine,
		queue:  queue,
	}
}
