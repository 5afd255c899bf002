package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/sireview/internal/middleware"
)

const (
	queryTimeout = 10 * time.Second
	runTimeout   = 15 * time.Minute
)

// NewRouter creates a Gin engine with routes configured.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Bounds query routes to 10 seconds and review runs to 15 minutes.
//   - Mounts Swagger docs (/swagger/*any) and Prometheus metrics (/metrics) when given.
//   - Configures API v1 routes (/api/v1/reviews).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
//
// Parameters:
//   - handler (*Handler): review endpoints.
//   - metricsHandler (http.Handler): Prometheus exposition handler; nil skips /metrics.
//
// Returns:
//   - *gin.Engine: Configured Gin router.
func NewRouter(handler *Handler, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(),
	)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := router.Group("/api/v1/reviews")
	{
		v1.POST("", withTimeout(runTimeout), handler.RunReview)

		latest := v1.Group("/latest", withTimeout(queryTimeout))
		latest.GET("", handler.GetLatest)
		latest.GET("/issuers/:code", handler.GetIssuer)
		latest.GET("/instruments/:isin", handler.GetInstrument)
	}

	return router
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
