package transport

import (
	"errors"
	"io"
	"net/http"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"
	"github.com/gilson954/sistema-rifa-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhooks service.WebhookService
}

func NewWebhookHandler(webhooks service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Receive handles POST /webhooks/:provider. The raw body is kept for signature checks.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}

	name := c.Param("provider")
	result, err := h.webhooks.Handle(c.Request.Context(), name, &provider.Notification{
		Body:   body,
		Header: c.Request.Header,
	})
	if err != nil {
		// a conflict is final for this delivery; retrying will not change it
		if errors.Is(err, entity.ErrConflict) {
			logrus.WithError(err).WithField("provider", name).Warn("Webhook conflict acknowledged")
			c.JSON(http.StatusOK, gin.H{"provider": name, "conflict": true, "reason": err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
