package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/DevMandate/LinknaMali-sub000/internal/tasks"
)

// AdminHandler handles administrative operations.
type AdminHandler struct {
	taskClient tasks.IClient
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(taskClient tasks.IClient) *AdminHandler {
	return &AdminHandler{taskClient: taskClient}
}

type reconcileRequest struct {
	OlderThanSeconds int `json:"older_than_seconds"`
	Limit            int `json:"limit"`
}

// ReconcilePayments handles POST /v1/admin/payments/reconcile. It enqueues
// an immediate ledger sweep ahead of the scheduled one; an empty body uses
// the sweep's own defaults.
func (h *AdminHandler) ReconcilePayments(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	task, err := tasks.NewPaymentReconcileTask(time.Duration(req.OlderThanSeconds)*time.Second, req.Limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build reconcile task"})
		return
	}
	if _, err := h.taskClient.Enqueue(task, asynq.Queue("low")); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue reconcile task"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
