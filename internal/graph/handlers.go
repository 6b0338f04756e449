package graph

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meridianrisk/meridian/internal/validation"
)

// Handler provides HTTP endpoints for graph analysis operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new graph handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up graph analysis routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/graph/analyses", h.RunAnalysis)
	r.GET("/graph/analyses", h.ListAnalyses)
	r.GET("/graph/analyses/:id", h.GetAnalysis)
	r.GET("/graph/analyses/:id/accounts/:accountId", h.GetAccountContext)
}

// RunAnalysis handles POST /v1/graph/analyses
func (h *Handler) RunAnalysis(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), &req)
	if err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": verrs.Error(),
				"details": verrs,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"analysis": analysis})
}

// ListAnalyses handles GET /v1/graph/analyses
func (h *Handler) ListAnalyses(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	analyses, err := h.service.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	// Headline view only; full node/edge payloads come from the
	// per-analysis endpoint.
	type listItem struct {
		ID        string  `json:"id"`
		Summary   Summary `json:"summary"`
		CreatedAt string  `json:"createdAt"`
	}
	items := make([]listItem, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, listItem{
			ID:        a.ID,
			Summary:   a.Result.Summary,
			CreatedAt: a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": items,
		"count":    len(items),
	})
}

// GetAnalysis handles GET /v1/graph/analyses/:id
func (h *Handler) GetAnalysis(c *gin.Context) {
	analysis, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrAnalysisNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No analysis found with this ID",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// GetAccountContext handles GET /v1/graph/analyses/:id/accounts/:accountId
func (h *Handler) GetAccountContext(c *gin.Context) {
	acct, err := h.service.AccountContext(c.Request.Context(), c.Param("id"), c.Param("accountId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrAnalysisNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No analysis found with this ID",
			})
		case errors.Is(err, ErrNodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No such node in this analysis",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": acct})
}
