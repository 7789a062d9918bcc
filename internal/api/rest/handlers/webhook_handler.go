package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/integration/stripe"
	"github.com/hayaat-app/payment-service/internal/service"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Предел размера тела вебхука: события шлюза компактные, все что
// больше - не наше событие.
const maxWebhookBodyBytes = 65536

// WebhookHandler обработчик для вебхуков платежного шлюза.
type WebhookHandler struct {
	gateway stripe.Client
	service service.WebhookService
	log     *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(gateway stripe.Client, svc service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		gateway: gateway,
		service: svc,
		log:     log,
	}
}

// Handle обрабатывает POST /stripeWebhook. Подпись проверяется до
// любого разбора тела; непрошедшие проверку запросы отбрасываются
// без обработки. На сбой хранилища отвечаем 500: ретрай доставки -
// забота шлюза, каждая повторная доставка обрабатывается идемпотентно.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read webhook body"})
		return
	}

	event, err := h.gateway.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("Webhook signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
		return
	}

	if err := h.service.HandleEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, domain.ErrStore) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist event"})
			return
		}
		h.log.Error("Unexpected webhook handling error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle event"})
		return
	}

	c.String(http.StatusOK, "ok")
}
