package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/kafka/producer"
	"github.com/hayaat-app/payment-service/internal/metrics"
	"github.com/hayaat-app/payment-service/internal/repository"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/google/uuid"
)

// WebhookService обрабатывает проверенные события платежного шлюза.
// Вебхук - асинхронный двойник браузерного редиректа: он доставляет
// подтверждение даже если пользователь закрыл вкладку, и может прийти
// до, после или вместо редиректа, в том числе повторно.
type WebhookService interface {
	// HandleEvent применяет событие к хранилищу. Ошибка возвращается
	// только при сбое хранилища: непригодные события (чужой тип,
	// неполные метаданные, отсутствующая строка) подтверждаются молча,
	// чтобы шлюз не перепосылал то, что никогда не обработается.
	HandleEvent(ctx context.Context, event *domain.WebhookEvent) error
}

type webhookService struct {
	repo     repository.SubscriptionRepository
	cache    repository.SessionCache       // Может быть nil
	producer producer.SubscriptionProducer // Может быть nil
	metrics  metrics.PaymentMetrics
	log      *logger.Logger
}

// NewWebhookService создает новый сервис обработки вебхуков.
func NewWebhookService(
	repo repository.SubscriptionRepository,
	cache repository.SessionCache,
	subProducer producer.SubscriptionProducer,
	paymentMetrics metrics.PaymentMetrics,
	log *logger.Logger,
) WebhookService {
	return &webhookService{
		repo:     repo,
		cache:    cache,
		producer: subProducer,
		metrics:  paymentMetrics,
		log:      log,
	}
}

// checkoutSessionPayload усеченный объект checkout-сессии из тела события.
type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

// HandleEvent обрабатывает событие шлюза. Путь вебхука - только
// обновление заранее известной строки: вставкой новых строк владеет
// браузерный путь подтверждения, иначе два триггера могли бы вставить
// две строки за один платеж.
func (s *webhookService) HandleEvent(ctx context.Context, event *domain.WebhookEvent) error {
	s.log.Debug("Handling webhook event: id=%s type=%s", event.ID, event.Type)

	if event.Type != domain.EventCheckoutCompleted {
		// Незнакомые типы подтверждаем без побочных эффектов.
		s.log.Debug("Ignoring webhook event type: %s", event.Type)
		s.countEvent(event.Type, false)
		return nil
	}

	var sess checkoutSessionPayload
	if err := json.Unmarshal(event.Data, &sess); err != nil {
		s.log.Warn("Malformed webhook payload for event %s: %v", event.ID, err)
		s.countEvent(event.Type, false)
		return nil
	}

	if sess.PaymentStatus != domain.PaymentStatusPaid {
		s.log.Debug("Webhook session %s not paid, skipping", sess.ID)
		s.countEvent(event.Type, false)
		return nil
	}

	if s.cache != nil {
		processed, err := s.cache.IsProcessed(ctx, sess.ID)
		if err != nil {
			s.log.Warn("Session cache unavailable: %v", err)
		} else if processed {
			s.log.Debug("Webhook session %s already processed (cache hit)", sess.ID)
			s.countEvent(event.Type, true)
			return nil
		}
	}

	update, ok := s.parseMetadata(sess)
	if !ok {
		// Сессия первичной покупки (без subscription_id) или чужая
		// сессия: зафиксировать нечего, это не повод для ретрая шлюза.
		s.countEvent(event.Type, false)
		return nil
	}

	err := s.repo.UpdateByID(ctx, update.subscriptionID, update.userID, update.amount, update.subscriptionEnd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Постоянное условие: строки нет и не появится.
			s.log.Warn("Webhook target not found: subscription=%s user=%s", update.subscriptionID, update.userID)
			s.countEvent(event.Type, false)
			return nil
		}
		s.log.Error("PAID WEBHOOK NOT PERSISTED: session=%s subscription=%s: %v", sess.ID, update.subscriptionID, err)
		s.countEvent(event.Type, false)
		return domain.NewStoreError("webhook update", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.MarkProcessed(ctx, sess.ID); cacheErr != nil {
			s.log.Warn("Failed to mark webhook session %s as processed: %v", sess.ID, cacheErr)
		}
	}
	s.publishRenewed(ctx, update)
	if s.metrics != nil {
		s.metrics.IncSubscriptionCommitted("webhook")
	}
	s.countEvent(event.Type, true)
	s.log.Info("Webhook committed: subscription=%s user=%s (session %s)", update.subscriptionID, update.userID, sess.ID)
	return nil
}

// parseMetadata извлекает цель обновления из метаданных сессии.
func (s *webhookService) parseMetadata(sess checkoutSessionPayload) (renewalUpdate, bool) {
	var u renewalUpdate

	rawID := sess.Metadata[domain.MetaSubscriptionID]
	u.userID = sess.Metadata[domain.MetaUserID]
	rawEnd := sess.Metadata[domain.MetaNewSubscriptionEnd]
	rawAmount := sess.Metadata[domain.MetaAmount]
	if rawID == "" || u.userID == "" || rawEnd == "" || rawAmount == "" {
		s.log.Debug("Webhook session %s has no renewal metadata", sess.ID)
		return u, false
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		s.log.Warn("Invalid subscription_id in webhook metadata: %s", rawID)
		return u, false
	}
	u.subscriptionID = id

	end, err := parseSubscriptionEnd(rawEnd)
	if err != nil {
		s.log.Warn("Invalid new_subscription_end in webhook metadata: %s", rawEnd)
		return u, false
	}
	u.subscriptionEnd = end

	minor, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		s.log.Warn("Invalid amount in webhook metadata: %s", rawAmount)
		return u, false
	}
	u.amount = domain.MinorToMajor(minor)

	return u, true
}

func (s *webhookService) publishRenewed(ctx context.Context, u renewalUpdate) {
	if s.producer == nil {
		return
	}
	sub := &domain.Subscription{
		ID:              u.subscriptionID,
		UserID:          u.userID,
		Subscribed:      true,
		Tier:            domain.DefaultTier,
		Amount:          u.amount,
		SubscriptionEnd: u.subscriptionEnd,
	}
	if err := s.producer.PublishSubscriptionRenewed(ctx, sub); err != nil {
		s.log.Warn("Failed to publish renewal event for %s: %v", u.subscriptionID, err)
	}
}

func (s *webhookService) countEvent(eventType string, handled bool) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(eventType, handled)
	}
}
