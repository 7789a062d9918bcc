package handlers

import (
	"net/http"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/middleware"
	"github.com/hayaat-app/payment-service/internal/service"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/hayaat-app/payment-service/pkg/req"
	"github.com/gin-gonic/gin"
)

// RenewalHandler обработчик продления подписки.
type RenewalHandler struct {
	service     service.RenewalService
	frontendURL string
	log         *logger.Logger
}

// NewRenewalHandler создает новый обработчик продления
func NewRenewalHandler(svc service.RenewalService, frontendURL string, log *logger.Logger) *RenewalHandler {
	return &RenewalHandler{
		service:     svc,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Create обрабатывает POST /updateSubscription: создает платежную
// сессию продления для известной строки подписки.
func (h *RenewalHandler) Create(c *gin.Context) {
	principalID := c.GetString(string(middleware.ContextUserIDKey))

	body, err := req.Decode[domain.RenewalRequest](c.Request.Body)
	if err != nil {
		h.log.Warn("Malformed renewal request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), principalID, body)
	if err != nil {
		h.log.Warn("Renewal initiation failed: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Complete обрабатывает GET /updateSubscription?session_id=: применяет
// оплаченную сессию и уводит браузер на фронтенд с флагом
// payment=success|failed|db_error|error.
func (h *RenewalHandler) Complete(c *gin.Context) {
	sessionID := c.Query("session_id")
	code := h.service.Complete(c.Request.Context(), sessionID)
	c.Redirect(http.StatusFound, withPaymentFlag(h.frontendURL, code))
}
