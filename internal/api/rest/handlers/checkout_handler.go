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

// CheckoutHandler обработчик первичной покупки подписки.
type CheckoutHandler struct {
	service     service.CheckoutService
	frontendURL string
	log         *logger.Logger
}

// NewCheckoutHandler создает новый обработчик checkout-а
func NewCheckoutHandler(svc service.CheckoutService, frontendURL string, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:     svc,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Create обрабатывает POST /createCheckout: создает платежную сессию
// и возвращает ее id и url.
func (h *CheckoutHandler) Create(c *gin.Context) {
	principalID := c.GetString(string(middleware.ContextUserIDKey))

	body, err := req.Decode[domain.CheckoutRequest](c.Request.Body)
	if err != nil {
		h.log.Warn("Malformed checkout request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), principalID, body)
	if err != nil {
		h.log.Warn("Checkout initiation failed: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Confirm обрабатывает GET /createCheckout?type=confirm&session_id=&redirect=.
// Браузерный путь: любой исход - это 302, никогда не страница ошибки.
// Успех уводит на redirect как есть, неуспех - туда же с payment=failed.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	redirect := c.Query("redirect")
	if redirect == "" {
		redirect = h.frontendURL
	}

	if c.Query("type") != "confirm" {
		h.log.Warn("Confirmation called without type=confirm")
		c.Redirect(http.StatusFound, withPaymentFlag(redirect, "failed"))
		return
	}

	sessionID := c.Query("session_id")
	if err := h.service.Confirm(c.Request.Context(), sessionID); err != nil {
		h.log.Warn("Confirmation failed for session %s: %v", sessionID, err)
		c.Redirect(http.StatusFound, withPaymentFlag(redirect, "failed"))
		return
	}

	c.Redirect(http.StatusFound, redirect)
}
