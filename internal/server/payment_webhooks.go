package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// HandleMidtransWebhook acknowledges every delivery with 200. Rejections are
// only logged so the gateway does not retry payloads that can never apply.
func (s *Server) HandleMidtransWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.log.Warn("webhook body unreadable", zap.Error(err))
		c.Set("webhook_reason", "BAD_PAYLOAD")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	result := s.reconciler.Handle(c.Request.Context(), payload)
	if result.Reason != "" {
		c.Set("webhook_reason", result.Reason)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
