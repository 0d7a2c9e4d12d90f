package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sla-service/internal/definitions"
	"sla-service/internal/logging"
	"sla-service/internal/models"
	"sla-service/internal/monitor"
	"sla-service/internal/notification"
	"sla-service/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	monitor  *monitor.Monitor
	store    store.Store
	registry *definitions.Registry
	hub      *notification.Hub
	logger   *logging.Logger
}

func NewHandler(m *monitor.Monitor, st store.Store, reg *definitions.Registry, hub *notification.Hub, logger *logging.Logger) *Handler {
	return &Handler{monitor: m, store: st, registry: reg, hub: hub, logger: logger}
}

func (h *Handler) AttachSLA(c *gin.Context) {
	var req models.AttachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid request body for attach: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rec, err := h.monitor.Attach(c.Request.Context(), req.RequestID, req.Category, req.CreatedAt)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, rec)
	case errors.Is(err, monitor.ErrDuplicateRecord):
		h.logger.WithRequest(req.RequestID).Warn("SLA already attached")
		c.JSON(http.StatusConflict, gin.H{"error": "SLA already exists for request"})
	case errors.Is(err, monitor.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithRequest(req.RequestID).Errorf("Failed to attach SLA: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach SLA"})
	}
}

func (h *Handler) CompleteSLA(c *gin.Context) {
	id := c.Param("request_id")
	var req models.CompleteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.WithRequest(id).Errorf("Invalid request body for complete: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	if err := h.monitor.Complete(c.Request.Context(), id, req.CompletedAt); err != nil {
		h.logger.WithRequest(id).Errorf("Failed to complete SLA: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete SLA"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetSLA(c *gin.Context) {
	id := c.Param("request_id")
	rec, err := h.monitor.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.logger.WithRequest(id).Errorf("Failed to get SLA: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get SLA"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "SLA not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListActive(c *gin.Context) {
	active := h.monitor.ActiveProgress(h.monitor.Now())
	h.logger.Debugf("Retrieved %d active SLAs", len(active))
	c.JSON(http.StatusOK, active)
}

func (h *Handler) ListEscalations(c *gin.Context) {
	id := c.Param("request_id")
	escs, err := h.store.ListEscalations(c.Request.Context(), id)
	if err != nil {
		h.logger.WithRequest(id).Errorf("Failed to list escalations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list escalations"})
		return
	}
	if escs == nil {
		escs = []models.Escalation{}
	}
	c.JSON(http.StatusOK, escs)
}

func (h *Handler) ListStatistics(c *gin.Context) {
	stats, err := h.store.ListStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to list statistics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list statistics"})
		return
	}
	if category := c.Query("category"); category != "" {
		filtered := stats[:0]
		for _, st := range stats {
			if st.Category == category {
				filtered = append(filtered, st)
			}
		}
		stats = filtered
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListDefinitions(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.All())
}

func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	h.hub.Serve(conn)
}
