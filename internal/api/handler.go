package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-bot/internal/models"
	"storefront-bot/internal/service"
	"storefront-bot/internal/store"
	"storefront-bot/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderLister lists one customer's orders
type OrderLister interface {
	ListOrders(ctx context.Context, userID int64) ([]models.OrderRecord, error)
}

// OrderAdmin is the privileged order surface
type OrderAdmin interface {
	ListAll(ctx context.Context) (map[int64][]models.OrderRecord, error)
	UpdateStatus(ctx context.Context, updatedBy, userID int64, orderNumber int, status string) error
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	orders   OrderLister
	admin    OrderAdmin
	token    string
	checkers map[string]Pinger
}

// NewHandler creates a new HTTP handler. The /api/v1 routes require
// token as a bearer token; an empty token disables them.
func NewHandler(orders OrderLister, admin OrderAdmin, token string, checkers map[string]Pinger) *Handler {
	return &Handler{
		orders:   orders,
		admin:    admin,
		token:    token,
		checkers: checkers,
	}
}

// UpdateStatusRequest is the body of a status update
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1", h.requireToken)
	{
		v1.GET("/orders", h.listAllOrders)
		v1.GET("/users/:user_id/orders", h.listUserOrders)
		v1.PATCH("/users/:user_id/orders/:order_number", h.updateStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.checkers {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) requireToken(c *gin.Context) {
	if h.token == "" {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "API disabled"})
		return
	}

	got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

// listAllOrders returns every user's orders keyed by user id
func (h *Handler) listAllOrders(c *gin.Context) {
	orders, err := h.admin.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// listUserOrders returns one user's orders
func (h *Handler) listUserOrders(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "orders": orders})
}

// updateStatus sets an order's status
func (h *Handler) updateStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	orderNumber, err := strconv.Atoi(c.Param("order_number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order number"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	err = h.admin.UpdateStatus(c.Request.Context(), 0, userID, orderNumber, req.Status)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "order_number": orderNumber, "status": strings.TrimSpace(req.Status)})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, service.ErrEmptyStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is empty"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update order status",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
