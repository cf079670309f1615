package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"le-palanka/internal/logger"
)

const requestIDKey = "request_id"

// SetupRoutes builds the gin engine serving every endpoint
func (h *Handler) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(h.withLogging(), gin.Recovery())

	router.GET("/health", h.HealthCheck)

	router.GET("/cart", h.GetCart)
	router.POST("/cart/items", h.AddItem)
	router.DELETE("/cart/items/:index", h.RemoveItem)

	router.POST("/checkout", h.Checkout)
	router.GET("/orders", h.ListOrders)

	router.POST("/reservations", h.CreateReservation)
	router.GET("/reservations", h.ListReservations)
	router.GET("/reservations/defaults", h.ReservationDefaults)

	router.GET("/payment-methods", h.PaymentMethods)
	router.GET("/payment-methods/:method", h.PaymentInstructions)

	return router
}

// NewServer wraps the routes in an http.Server listening on port
func (h *Handler) NewServer(port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// withLogging assigns a request id and logs the start and end of every request
func (h *Handler) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = logger.GenerateRequestID()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		path := c.Request.URL.Path
		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", c.Request.Method, path),
			id,
			map[string]interface{}{
				"method":      c.Request.Method,
				"path":        path,
				"remote_addr": c.ClientIP(),
				"user_agent":  c.Request.UserAgent(),
			})

		c.Next()

		status := c.Writer.Status()
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", c.Request.Method, path, status),
			id,
			map[string]interface{}{
				"method":      c.Request.Method,
				"path":        path,
				"status_code": status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
