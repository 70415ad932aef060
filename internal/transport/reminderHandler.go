package transport

import (
	"net/http"

	"github.com/ise-alumni/portal-sub001/internal/entity"
	"github.com/ise-alumni/portal-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	service service.ReminderService
}

func NewReminderHandler(service service.ReminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

func (h *ReminderHandler) SetReminder(c *gin.Context) {
	var req entity.SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.service.SetReminder(c.Request.Context(), &req)
	switch err {
	case nil:
		c.JSON(http.StatusCreated, reminder)
	case entity.ErrReminderAlreadyExists:
		// A duplicate toggle is "already set", not a server fault
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case entity.ErrTargetNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case entity.ErrInvalidTargetType, entity.ErrReminderTooLate:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *ReminderHandler) ClearReminder(c *gin.Context) {
	userID := c.Query("user_id")
	targetType := entity.TargetType(c.Query("target_type"))
	targetID := c.Query("target_id")

	if userID == "" || targetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and target_id are required"})
		return
	}

	removed, err := h.service.ClearReminder(c.Request.Context(), userID, targetType, targetID)
	if err == entity.ErrInvalidTargetType {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *ReminderHandler) HasReminder(c *gin.Context) {
	userID := c.Param("user_id")
	targetType := entity.TargetType(c.Param("target_type"))
	targetID := c.Param("target_id")

	exists, err := h.service.HasReminder(c.Request.Context(), userID, targetType, targetID)
	if err == entity.ErrInvalidTargetType {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"has_reminder": exists})
}

func (h *ReminderHandler) ListReminders(c *gin.Context) {
	userID := c.Param("user_id")

	reminders, err := h.service.ListReminders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get reminders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders": reminders,
		"count":     len(reminders),
	})
}
