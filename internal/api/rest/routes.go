package rest

import (
	"github.com/hayaat-app/payment-service/internal/api/rest/handlers"
	"github.com/hayaat-app/payment-service/internal/middleware"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps обработчики и middleware, из которых собирается роутер.
type RouterDeps struct {
	Checkout     *handlers.CheckoutHandler
	Renewal      *handlers.RenewalHandler
	Webhook      *handlers.WebhookHandler
	Subscription *handlers.SubscriptionHandler
	Auth         *middleware.JWTMiddleware
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware.
// Пути повторяют контракты исходных функций: создание и подтверждение
// checkout-а делят один путь и различаются методом, как и продление.
func SetupRouter(log *logger.Logger, registry *prometheus.Registry, deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Неподдерживаемый метод на известном пути - это 405, а не 404
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Первичная покупка: POST аутентифицирован, GET - браузерный
	// редирект от шлюза, доверие к нему только через повторную сверку.
	r.POST("/createCheckout", deps.Auth.RequireAuth(), deps.Checkout.Create)
	r.GET("/createCheckout", deps.Checkout.Confirm)

	// Вебхук шлюза: аутентификация - криптографическая подпись тела
	r.POST("/stripeWebhook", deps.Webhook.Handle)

	// Продление: POST аутентифицирован, GET - завершение по редиректу
	r.POST("/updateSubscription", deps.Auth.RequireAuth(), deps.Renewal.Create)
	r.GET("/updateSubscription", deps.Renewal.Complete)

	// Чтение состояния подписки
	r.GET("/subscriptions/:user_id", deps.Auth.RequireAuth(), deps.Subscription.GetActive)

	return r
}
