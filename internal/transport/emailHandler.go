package transport

import (
	"errors"
	"net/http"

	"github.com/ise-alumni/portal-sub001/internal/service"
	"github.com/ise-alumni/portal-sub001/pkg/mailer"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	service service.QueueService
}

func NewEmailHandler(service service.QueueService) *EmailHandler {
	return &EmailHandler{service: service}
}

// SendEmail delivers one message immediately. The relay's error text goes
// into the JSON details field for diagnosability; it is the caller's job not
// to show that to end users.
func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req service.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.SendEmail(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrMailerNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mail transport is not configured"})
			return
		}

		var transportErr *mailer.TransportError
		if errors.As(err, &transportErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "failed to send email",
				"details": transportErr.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
