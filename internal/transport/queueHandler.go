package transport

import (
	"net/http"

	"github.com/ise-alumni/portal-sub001/internal/entity"
	"github.com/ise-alumni/portal-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	service service.QueueService
}

func NewQueueHandler(service service.QueueService) *QueueHandler {
	return &QueueHandler{service: service}
}

func (h *QueueHandler) Enqueue(c *gin.Context) {
	var req entity.EnqueueEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.Enqueue(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *QueueHandler) ListByUser(c *gin.Context) {
	userID := c.Param("user_id")

	entries, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get queue entries",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
