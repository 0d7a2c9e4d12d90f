package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sla-service/internal/definitions"
	"sla-service/internal/logging"
	"sla-service/internal/monitor"
	"sla-service/internal/notification"
	"sla-service/internal/store"
)

// Deps are the components served over HTTP.
type Deps struct {
	Monitor  *monitor.Monitor
	Store    store.Store
	Registry *definitions.Registry
	Hub      *notification.Hub
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
	BasePath string
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(deps.Logger))

	h := NewHandler(deps.Monitor, deps.Store, deps.Registry, deps.Hub, deps.Logger)
	basePath := deps.BasePath
	if basePath == "" {
		basePath = "/api/v0"
	}

	api := r.Group(basePath)
	{
		// SLA lifecycle
		api.POST("/sla", h.AttachSLA)
		api.POST("/sla/:request_id/complete", h.CompleteSLA)
		api.GET("/sla/active", h.ListActive)
		api.GET("/sla/:request_id", h.GetSLA)
		api.GET("/sla/:request_id/escalations", h.ListEscalations)

		// Reporting
		api.GET("/statistics", h.ListStatistics)
		api.GET("/definitions", h.ListDefinitions)

		// Live notifications
		if deps.Hub != nil {
			api.GET("/ws", h.ServeWS)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active": len(deps.Monitor.ListActive())})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}
