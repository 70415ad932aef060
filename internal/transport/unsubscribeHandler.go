package transport

import (
	"net/http"

	"github.com/ise-alumni/portal-sub001/internal/entity"
	"github.com/ise-alumni/portal-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type UnsubscribeHandler struct {
	service service.UnsubscribeService
}

func NewUnsubscribeHandler(service service.UnsubscribeService) *UnsubscribeHandler {
	return &UnsubscribeHandler{service: service}
}

// Fixed pages rendered for link clicks from mail clients. Always HTML, never
// JSON, and no detail about why a token was rejected.
const (
	unsubscribeOKPage = `<!DOCTYPE html>
<html>
<head><title>Unsubscribed</title></head>
<body>
<h1>You have been unsubscribed</h1>
<p>You will no longer receive these emails from the alumni portal.</p>
</body>
</html>`

	unsubscribeInvalidPage = `<!DOCTYPE html>
<html>
<head><title>Invalid link</title></head>
<body>
<h1>This link is no longer valid</h1>
<p>The unsubscribe link you followed is invalid or has expired.</p>
</body>
</html>`

	unsubscribeErrorPage = `<!DOCTYPE html>
<html>
<head><title>Something went wrong</title></head>
<body>
<h1>Something went wrong</h1>
<p>We could not process your request right now. Please try again later.</p>
</body>
</html>`
)

func (h *UnsubscribeHandler) Unsubscribe(c *gin.Context) {
	tok := c.Query("token")
	typeOverride := c.Query("type")

	if tok == "" {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(unsubscribeInvalidPage))
		return
	}

	_, err := h.service.Redeem(c.Request.Context(), tok, typeOverride)
	switch err {
	case nil:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(unsubscribeOKPage))
	case entity.ErrTokenInvalid, entity.ErrTokenExpired:
		// Same neutral page for both cases
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(unsubscribeInvalidPage))
	default:
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(unsubscribeErrorPage))
	}
}
