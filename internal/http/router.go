// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/menucraft/go-badge-backend/internal/catalog"
	"github.com/menucraft/go-badge-backend/internal/config"
	"github.com/menucraft/go-badge-backend/internal/domain"
	"github.com/menucraft/go-badge-backend/internal/http/handlers"
	"github.com/menucraft/go-badge-backend/internal/http/middleware"
	"github.com/menucraft/go-badge-backend/internal/repo"
	"github.com/menucraft/go-badge-backend/internal/services"
	"github.com/menucraft/go-badge-backend/internal/session"
)

// ledgerShim adapts the repository free functions to the services.UnlockLedger
// interface expected by the BadgeService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type ledgerShim struct{}

// ListUnlockedIDs proxies repo.ListUnlockedIDs.
func (ledgerShim) ListUnlockedIDs(ctx context.Context, db *gorm.DB, userID string) (map[string]struct{}, error) {
	return repo.ListUnlockedIDs(ctx, db, userID)
}

// TryInsertUnlock proxies repo.TryInsertUnlock.
func (ledgerShim) TryInsertUnlock(ctx context.Context, db *gorm.DB, userID, badgeID string, at time.Time) (bool, *domain.UnlockRecord, error) {
	return repo.TryInsertUnlock(ctx, db, userID, badgeID, at)
}

// ListUnlocks proxies repo.ListUnlocks (pagination support).
func (ledgerShim) ListUnlocks(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.UnlockRecord, error) {
	return repo.ListUnlocks(ctx, db, userID, offset, limit)
}

// CountUnlocks proxies repo.CountUnlocks (pagination support).
func (ledgerShim) CountUnlocks(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountUnlocks(ctx, db, userID)
}

// progressShim adapts the repository free functions to the
// services.ProgressRepo interface expected by the ProgressService.
type progressShim struct{}

// GetProgress proxies repo.GetProgress.
func (progressShim) GetProgress(ctx context.Context, db *gorm.DB, userID string) (domain.Progress, error) {
	return repo.GetProgress(ctx, db, userID)
}

// ApplyProgressDelta proxies repo.ApplyProgressDelta.
func (progressShim) ApplyProgressDelta(ctx context.Context, db *gorm.DB, userID string, d domain.ProgressDelta) (domain.Progress, error) {
	return repo.ApplyProgressDelta(ctx, db, userID, d)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// It returns the session manager so the caller can drain live sessions on
// shutdown.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cat *catalog.Catalog, cfg config.Config) *session.Manager {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/catalog
	badgeSvc := &services.BadgeService{
		DB:       db,
		Catalog:  cat,
		Ledger:   ledgerShim{},
		Progress: progressShim{},
	}
	progSvc := &services.ProgressService{DB: db, Repo: progressShim{}}
	sessions := session.NewManager(badgeSvc.CheckBadges, session.Options{
		PollInterval:    cfg.PollInterval,
		NotificationTTL: cfg.NotificationTTL,
		NotificationMax: cfg.NotificationMax,
	})
	h := handlers.New(badgeSvc, progSvc, sessions)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Catalog
		api.GET("/badges", h.ListBadges)
		api.GET("/badges/:id", h.GetBadge)

		// Per-user badges
		api.GET("/users/:id/badges", h.ListUserBadges)
		api.GET("/users/:id/badges/summary", h.GetUserBadgeSummary)
		api.POST("/users/:id/badges/check", h.CheckBadges)

		// Progress
		api.GET("/users/:id/progress", h.GetProgress)
		api.POST("/users/:id/progress", h.ApplyProgress)

		// Sessions and notifications
		api.POST("/sessions", h.StartSession)
		api.DELETE("/sessions/:id", h.EndSession)
		api.GET("/sessions/:id/notifications", h.ListNotifications)
		api.DELETE("/sessions/:id/notifications/:nid", h.DismissNotification)
	}

	return sessions
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
