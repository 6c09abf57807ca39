package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
)

// NewRouter собирает gin-маршрутизатор шлюза.
func NewRouter(handler *OrderHandler, logger *log.Entry) *gin.Engine {
	if logger == nil {
		logger = log.New().WithField("component", "http-gateway")
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware(logger))

	api := router.Group("/api")
	api.GET("/items", handler.ListItems)
	api.POST("/orders", handler.CreateOrder)
	api.GET("/orders", handler.ListOrders)
	api.POST("/orders/validate", handler.ValidateOrderState)
	api.GET("/orders/:id", handler.GetOrder)

	router.GET("/healthcheck", handler.Healthcheck)

	return router
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLogMiddleware(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  requestID(c),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("http request failed")
			return
		}
		entry.Debug("http request served")
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
