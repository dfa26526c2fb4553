package router

import (
	"net/http"
	"time"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/handler"
	"github.com/etepro/etepro-backend/internal/metrics"
	"github.com/etepro/etepro-backend/internal/middleware"
	"github.com/etepro/etepro-backend/internal/response"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const simuladoStreamPath = "/ws/v1/simulados/:simulado_id/stream"

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Simulado *handler.SimuladoHandler
	Portal   *handler.PortalHandler
	Tutor    *handler.TutorHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// The returned limiter owns a cleanup goroutine; callers Close it on shutdown.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) (*gin.Engine, *middleware.RateLimiter) {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.Middleware())

	brotliCfg := middleware.DefaultBrotliConfig
	brotliCfg.SkipPaths = []string{"/metrics", simuladoStreamPath}
	router.Use(middleware.BrotliWithConfig(brotliCfg))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")

	// ─── 1. Catalogue (JWT, cacheable) ─────────────────────────────────
	simulados := api.Group("/simulados")
	simulados.Use(middleware.RequireUser(authService), middleware.CacheControl(60))
	{
		simulados.GET("", handlers.Simulado.List)
		simulados.GET("/:simulado_id", handlers.Simulado.Get)
	}

	// ─── 2. Student Portal (JWT) ───────────────────────────────────────
	portal := api.Group("")
	portal.Use(middleware.RequireUser(authService), middleware.NoStore())
	{
		portal.GET("/attempts", handlers.Portal.ListAttempts)
		portal.GET("/stats", handlers.Portal.GetStats)
	}

	// ─── 3. Tutor (rate limited) ───────────────────────────────────────
	// The chat endpoint answers with plain {error} bodies, so identity is
	// resolved without aborting and anonymous callers are turned away with a
	// plain 401 before they reach the limiter.
	tutorLimiter := middleware.NewRateLimiter(cfg.TutorRatePerMinute, time.Minute, handler.TutorRateLimited)
	tutor := api.Group("/tutor")
	tutor.Use(middleware.NoStore())
	{
		tutor.POST("/chat",
			middleware.IdentifyUser(authService),
			handler.RequireTutorUser,
			tutorLimiter.Middleware(),
			handlers.Tutor.Chat,
		)
		tutor.GET("/sessions/:session_id/turns",
			middleware.RequireUser(authService),
			handlers.Tutor.ListTurns,
		)
	}

	// ─── 4. WebSocket (token query param) ──────────────────────────────
	router.GET(simuladoStreamPath, middleware.RequireWSAuth(authService), handlers.WS.SimuladoStream)

	return router, tutorLimiter
}
