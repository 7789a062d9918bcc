package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hayaat-app/payment-service/config"
	"github.com/hayaat-app/payment-service/internal/api/rest"
	"github.com/hayaat-app/payment-service/internal/api/rest/handlers"
	"github.com/hayaat-app/payment-service/internal/integration/stripe"
	"github.com/hayaat-app/payment-service/internal/kafka"
	"github.com/hayaat-app/payment-service/internal/kafka/producer"
	"github.com/hayaat-app/payment-service/internal/metrics"
	"github.com/hayaat-app/payment-service/internal/middleware"
	"github.com/hayaat-app/payment-service/internal/repository"
	"github.com/hayaat-app/payment-service/internal/repository/postgres"
	"github.com/hayaat-app/payment-service/internal/service"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var log *logger.Logger

func init() {
	logLevel := logger.INFO
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(promRegistry)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Подключение к базе данных
	dbPool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	repo := repository.NewPostgresSubscriptionRepository(dbPool, log)

	// Кеш обработанных сессий. Сервис работает и без него:
	// идемпотентность обеспечивают гарды хранилища.
	var sessionCache repository.SessionCache
	redisCache, err := repository.NewRedisSessionCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn("Redis unavailable, session cache disabled: %v", err)
	} else {
		sessionCache = redisCache
		defer redisCache.Close()
	}

	// Kafka продюсер событий подписки, тоже опциональный
	var subProducer producer.SubscriptionProducer
	if err := kafka.EnsureTopics(cfg.Kafka.Brokers, log); err != nil {
		log.Warn("Kafka topic setup failed, events disabled: %v", err)
	} else {
		kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
		saramaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, kafka.NewSaramaConfig(kafkaConfig))
		if err != nil {
			log.Warn("Kafka producer unavailable, events disabled: %v", err)
		} else {
			subProducer = producer.NewKafkaSubscriptionProducer(saramaProducer, log)
			defer subProducer.Close()
		}
	}

	// Клиент платежного шлюза
	gateway := stripe.NewClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret, log)

	// Сервисы
	checkoutSvc := service.NewCheckoutService(repo, gateway, sessionCache, subProducer, paymentMetrics, cfg.App.BaseURL, cfg.App.FrontendURL, log)
	renewalSvc := service.NewRenewalService(repo, gateway, sessionCache, subProducer, paymentMetrics, cfg.App.BaseURL, log)
	webhookSvc := service.NewWebhookService(repo, sessionCache, subProducer, paymentMetrics, log)
	subscriptionSvc := service.NewSubscriptionService(repo, log)

	// Аутентификация
	authMiddleware := middleware.NewJWTMiddleware(log, &middleware.DefaultTokenValidator{
		Secret: []byte(cfg.Auth.JWTSecret),
	})

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	router := rest.SetupRouter(log, promRegistry, rest.RouterDeps{
		Checkout:     handlers.NewCheckoutHandler(checkoutSvc, cfg.App.FrontendURL, log),
		Renewal:      handlers.NewRenewalHandler(renewalSvc, cfg.App.FrontendURL, log),
		Webhook:      handlers.NewWebhookHandler(gateway, webhookSvc, log),
		Subscription: handlers.NewSubscriptionHandler(subscriptionSvc, log),
		Auth:         authMiddleware,
	})

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
