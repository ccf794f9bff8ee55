// Package handlers exposes the worker's operator HTTP endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invtrack/internal/middleware"
	"invtrack/internal/syncstatus"
)

// SyncTrigger starts price sync cycles on demand.
type SyncTrigger interface {
	StartCycle(ctx context.Context) error
	Running() bool
}

// SyncHandler serves the price sync status and manual trigger.
type SyncHandler struct {
	trigger SyncTrigger
	status  syncstatus.Store
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(trigger SyncTrigger, status syncstatus.Store) *SyncHandler {
	return &SyncHandler{trigger: trigger, status: status}
}

// SyncStatusResponse describes the last completed price sync.
type SyncStatusResponse struct {
	Status          string    `json:"status"`
	LastCompletedAt time.Time `json:"last_completed_at"`
	Running         bool      `json:"running"`
}

// GetStatus returns the sync-status marker.
// 404 SYNC_STATUS_NOT_FOUND until the first cycle completes.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	status, err := h.status.Read(c.Request.Context())
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, SyncStatusResponse{
		Status:          status.Text(),
		LastCompletedAt: status.LastCompletedAt,
		Running:         h.trigger.Running(),
	})
}

// TriggerSync starts a cycle in the background.
// 202 when started, 409 SYNC_IN_PROGRESS when a cycle is already running.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	if err := h.trigger.StartCycle(c.Request.Context()); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "price sync started"})
}

// Health reports that the worker is up.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterRoutes mounts the operator endpoints on r.
func RegisterRoutes(r gin.IRouter, h *SyncHandler) {
	r.GET("/api/health", Health)

	v1 := r.Group("/api/v1")
	syncGroup := v1.Group("/sync")
	syncGroup.GET("/status", h.GetStatus)
	syncGroup.POST("/run", h.TriggerSync)
}
