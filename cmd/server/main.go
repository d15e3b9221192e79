// TaskPilot API server: accepts task descriptions, runs the multi-agent
// analysis pipeline and serves the enriched results.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"taskpilot/internal/agents"
	"taskpilot/internal/ai"
	"taskpilot/internal/analysis"
	"taskpilot/internal/cache"
	"taskpilot/internal/config"
	"taskpilot/internal/handlers"
	"taskpilot/internal/logging"
	"taskpilot/internal/metrics"
	"taskpilot/internal/middleware"
	"taskpilot/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logging.Init()
	defer logging.Sync()

	cfg := config.Load()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := store.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logging.S().Fatalw("failed to open database", "error", err)
	}
	st := store.New(db)

	aiRouter := ai.NewRouter(cfg.GeminiAPIKey, cfg.AnthropicAPIKey)
	if !aiRouter.Available() {
		logging.S().Warnw("no model provider configured; analysis fields will carry error records")
	}

	suite := agents.NewSuite(aiRouter)
	svc := analysis.NewService(suite, st)
	responseCache := cache.New(cfg.RedisURL)
	defer responseCache.Close()

	router := buildRouter(cfg, st, svc, responseCache, aiRouter)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // a full analysis run can be slow
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.S().Infow("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.S().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logging.S().Infow("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.S().Errorw("graceful shutdown failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, st *store.Store, svc *analysis.Service, responseCache *cache.Cache, aiRouter *ai.Router) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Security())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)))
	router.Use(metrics.PrometheusMiddleware())

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbState := "ok"
		if err := st.Health(); err != nil {
			status = http.StatusServiceUnavailable
			dbState = err.Error()
		}
		c.JSON(status, gin.H{
			"status":     "ok",
			"database":   dbState,
			"ai_enabled": aiRouter.Available(),
			"time":       time.Now().UTC(),
		})
	})
	router.GET("/metrics", metrics.PrometheusHandler())

	handlers.NewHandler(st, svc, responseCache).RegisterRoutes(router)
	return router
}
