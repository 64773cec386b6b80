package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/report"
)

// AuditService is the subset of audit.Service the handlers use.
type AuditService interface {
	Create(ctx context.Context, name, description, requestedBy string, cfg domain.AuditConfig) (*domain.AuditRun, error)
	Get(ctx context.Context, id string) (*domain.AuditRun, error)
	List(ctx context.Context, limit, offset int) ([]*domain.AuditRun, error)
	Start(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (*domain.RunStatus, error)
	Results(ctx context.Context, id string) (*audit.Results, error)
}

// CreateAuditRequest is the body of POST /audits. Omitted crawl settings
// take the server defaults.
type CreateAuditRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	RequestedBy string   `json:"requested_by"`
	SeedURLs    []string `binding:"required,min=1" json:"seed_urls"`

	MaxPages        *int     `json:"max_pages"`
	CrawlDepth      *int     `json:"crawl_depth"`
	CrawlDelay      *float64 `json:"crawl_delay"`
	RespectRobots   *bool    `json:"respect_robots_txt"`
	IncludeExternal *bool    `json:"include_external"`
	IncludeImages   *bool    `json:"include_images"`
	IncludeJS       *bool    `json:"include_js"`
	IncludeCSS      *bool    `json:"include_css"`
}

// Config overlays the request on defaults.
func (r *CreateAuditRequest) Config(defaults domain.AuditConfig) domain.AuditConfig {
	cfg := defaults
	cfg.SeedURLs = r.SeedURLs
	setIf(&cfg.MaxPages, r.MaxPages)
	setIf(&cfg.CrawlDepth, r.CrawlDepth)
	setIf(&cfg.CrawlDelay, r.CrawlDelay)
	setIf(&cfg.RespectRobots, r.RespectRobots)
	setIf(&cfg.IncludeExternal, r.IncludeExternal)
	setIf(&cfg.IncludeImages, r.IncludeImages)
	setIf(&cfg.IncludeJS, r.IncludeJS)
	setIf(&cfg.IncludeCSS, r.IncludeCSS)
	return cfg
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// AuditHandler serves the /audits endpoints.
type AuditHandler struct {
	service  AuditService
	defaults domain.AuditConfig
	logger   logger.Logger
}

// NewAuditHandler creates an AuditHandler. defaults seeds the crawl settings
// of new runs.
func NewAuditHandler(service AuditService, defaults domain.AuditConfig, log logger.Logger) *AuditHandler {
	return &AuditHandler{
		service:  service,
		defaults: defaults,
		logger:   log,
	}
}

// Create handles POST /audits. With ?start=true the new run is also started.
func (h *AuditHandler) Create(c *gin.Context) {
	var req CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	run, err := h.service.Create(ctx, req.Name, req.Description, req.RequestedBy, req.Config(h.defaults))
	if err != nil {
		if respondServiceError(c, err, "Failed to create audit") == http.StatusInternalServerError {
			h.logger.Error("Failed to create audit", logger.Error(err))
		}
		return
	}

	if c.Query("start") == "true" {
		if err = h.service.Start(ctx, run.ID); err != nil {
			h.logger.Error("Failed to start new audit", logger.String("run_id", run.ID), logger.Error(err))
			respondServiceError(c, err, "Failed to start audit")
			return
		}
		if started, getErr := h.service.Get(ctx, run.ID); getErr == nil {
			run = started
		}
	}

	c.JSON(http.StatusCreated, run)
}

// List handles GET /audits.
func (h *AuditHandler) List(c *gin.Context) {
	limit, offset := parseLimitOffset(c, defaultListLimit, 0)

	runs, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list audits", logger.Error(err))
		respondServiceError(c, err, "Failed to list audits")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": runs,
		"count":  len(runs),
		"limit":  limit,
		"offset": offset,
	})
}

// Get handles GET /audits/:id.
func (h *AuditHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to get audit")
		return
	}
	c.JSON(http.StatusOK, run)
}

// Status handles GET /audits/:id/status.
func (h *AuditHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to get audit status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Start handles POST /audits/:id/start.
func (h *AuditHandler) Start(c *gin.Context) {
	h.command(c, "start", h.service.Start)
}

// Cancel handles POST /audits/:id/cancel.
func (h *AuditHandler) Cancel(c *gin.Context) {
	h.command(c, "cancel", h.service.Cancel)
}

// Retry handles POST /audits/:id/retry.
func (h *AuditHandler) Retry(c *gin.Context) {
	h.command(c, "retry", h.service.Retry)
}

// command runs a lifecycle operation and answers with the run's new view.
func (h *AuditHandler) command(c *gin.Context, name string, op func(context.Context, string) error) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := op(ctx, id); err != nil {
		if respondServiceError(c, err, "Failed to "+name+" audit") == http.StatusInternalServerError {
			h.logger.Error("Audit command failed",
				logger.String("command", name),
				logger.String("run_id", id),
				logger.Error(err),
			)
		}
		return
	}

	h.logger.Info("Audit command accepted", logger.String("command", name), logger.String("run_id", id))

	run, err := h.service.Get(ctx, id)
	if err != nil {
		respondServiceError(c, err, "Failed to get audit")
		return
	}
	c.JSON(http.StatusAccepted, run)
}

// Report handles GET /audits/:id/report?format=json|csv|table.
func (h *AuditHandler) Report(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatJSON)))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	run, err := h.service.Get(ctx, id)
	if err != nil {
		respondServiceError(c, err, "Failed to get audit")
		return
	}
	results, err := h.service.Results(ctx, id)
	if err != nil {
		h.logger.Error("Failed to load audit results", logger.String("run_id", id), logger.Error(err))
		respondServiceError(c, err, "Failed to load audit results")
		return
	}

	rep := report.Build(run, results)
	switch format {
	case report.FormatJSON:
		c.JSON(http.StatusOK, rep)
	case report.FormatCSV:
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-"+id+".csv"))
		c.Status(http.StatusOK)
		if err = report.WriteCSV(c.Writer, rep); err != nil {
			h.logger.Error("Failed to write CSV report", logger.String("run_id", id), logger.Error(err))
		}
	case report.FormatTable:
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
		if err = report.WriteTable(c.Writer, rep, report.DefaultTopFindings); err != nil {
			h.logger.Error("Failed to write table report", logger.String("run_id", id), logger.Error(err))
		}
	}
}
