package handlers

import (
	"net/http"

	"github.com/hayaat-app/payment-service/internal/middleware"
	"github.com/hayaat-app/payment-service/internal/service"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler обработчик чтения подписок.
type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(svc service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: svc,
		log:     log,
	}
}

// GetActive обрабатывает GET /subscriptions/:user_id: возвращает
// активную подписку пользователя. Чужие подписки не видны.
func (h *SubscriptionHandler) GetActive(c *gin.Context) {
	principalID := c.GetString(string(middleware.ContextUserIDKey))
	userID := c.Param("user_id")

	sub, err := h.service.GetActive(c.Request.Context(), principalID, userID)
	if err != nil {
		h.log.Warn("Subscription read failed for user %s: %v", userID, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sub)
}
