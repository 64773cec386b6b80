package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// Defaults are the crawl settings applied to new runs.
	Defaults domain.AuditConfig
	// Metrics serves Prometheus metrics at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter builds the gin engine for the audit API.
func NewRouter(service AuditService, cfg RouterConfig, log logger.Logger) *gin.Engine {
	log = logger.Component(log, "api")

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.Metrics))
	}

	v1 := router.Group("/api/v1")
	handler := NewAuditHandler(service, cfg.Defaults, log)

	audits := v1.Group("/audits")
	audits.POST("", handler.Create)
	audits.GET("", handler.List)
	audits.GET("/:id", handler.Get)
	audits.GET("/:id/status", handler.Status)
	audits.GET("/:id/report", handler.Report)
	audits.POST("/:id/start", handler.Start)
	audits.POST("/:id/cancel", handler.Cancel)
	audits.POST("/:id/retry", handler.Retry)

	return router
}

// ginLogger records one entry per request. Health probes are not logged and
// server errors are raised to error level.
func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		began := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("route", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("elapsed", time.Since(began)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("Request failed", fields...)
			return
		}
		log.Debug("Request served", fields...)
	}
}
