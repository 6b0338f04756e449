package underwriting

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meridianrisk/meridian/internal/validation"
)

// Handler provides HTTP endpoints for underwriting operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new underwriting handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up underwriting routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/underwriting/decisions", h.RunDecision)
	r.GET("/underwriting/decisions/:id", h.GetDecision)
	r.GET("/users/:userId/decisions", h.ListUserDecisions)
}

// RunDecision handles POST /v1/underwriting/decisions
func (h *Handler) RunDecision(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	decision, err := h.service.Decide(c.Request.Context(), &req)
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

	c.JSON(http.StatusCreated, gin.H{"decision": decision})
}

// GetDecision handles GET /v1/underwriting/decisions/:id
func (h *Handler) GetDecision(c *gin.Context) {
	decision, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrDecisionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No decision found with this ID",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"decision": decision})
}

// ListUserDecisions handles GET /v1/users/:userId/decisions
func (h *Handler) ListUserDecisions(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	decisions, err := h.service.ListByUser(c.Request.Context(), c.Param("userId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"decisions": decisions,
		"count":     len(decisions),
	})
}
