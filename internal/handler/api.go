package handler

import (
	"errors"
	"net/http"

	"decision-service/internal/metrics"
	"decision-service/internal/models"
	"decision-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	advisor *service.Advisor
	logger  *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(advisor *service.Advisor, logger *zap.Logger) *Handler {
	return &Handler{
		advisor: advisor,
		logger:  logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(RequestID())

	api := r.Group("/api/v1")
	{
		api.POST("/generate", h.Generate)
		api.POST("/decide", h.Decide)

		api.POST("/feedback", h.RecordFeedback)
		api.GET("/feedback/stats", h.GetFeedbackStats)
	}

	// Unversioned aliases used by the web frontend
	r.POST("/generate", h.Generate)
	r.POST("/decide", h.Decide)

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// DegradedDecision is returned by /decide whenever inference fails
func DegradedDecision() models.DecisionResult {
	return models.DecisionResult{
		Winner:     models.LabelA,
		Confidence: 0.5,
		ClassProbs: map[string]float64{},
	}
}

// DegradedGeneration is returned by /generate whenever generation fails:
// four empty lists and the error text in raw
func DegradedGeneration(err error) models.GenerateResponse {
	raw := "generation failed"
	if err != nil && err.Error() != "" {
		raw = err.Error()
	}
	return models.GenerateResponse{
		ProsA: []string{},
		ConsA: []string{},
		ProsB: []string{},
		ConsB: []string{},
		Raw:   raw,
	}
}

// Generate handles pros/cons generation
func (h *Handler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.advisor.Generate(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to generate pros and cons",
			zap.String("request_id", GetRequestID(c)),
			zap.String("topic", req.Topic),
			zap.Error(err))
		metrics.DegradedTotal.WithLabelValues("generate").Inc()
		c.JSON(http.StatusOK, DegradedGeneration(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Decide handles winner classification
func (h *Handler) Decide(c *gin.Context) {
	var req models.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.advisor.Decide(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to decide",
			zap.String("request_id", GetRequestID(c)),
			zap.Error(err))
		metrics.DegradedTotal.WithLabelValues("decide").Inc()
		c.JSON(http.StatusOK, DegradedDecision())
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordFeedback stores the option the user finally picked
func (h *Handler) RecordFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.advisor.RecordFeedback(c.Request.Context(), req)
	if errors.Is(err, service.ErrFeedbackDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to record feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// GetFeedbackStats returns feedback counts
func (h *Handler) GetFeedbackStats(c *gin.Context) {
	stats, err := h.advisor.FeedbackStats(c.Request.Context())
	if errors.Is(err, service.ErrFeedbackDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get feedback stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"service":            "decision-service",
		"version":            "1.0.0",
		"generation_enabled": h.advisor.GenerationEnabled(),
	})
}
