package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/integration/stripe"
	"github.com/hayaat-app/payment-service/internal/kafka/producer"
	"github.com/hayaat-app/payment-service/internal/metrics"
	"github.com/hayaat-app/payment-service/internal/repository"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/hayaat-app/payment-service/pkg/req"
	"github.com/google/uuid"
)

const checkoutProductName = "Hayaat Subscription (Monthly)"

// CheckoutService интерфейс сервиса первичной покупки подписки.
type CheckoutService interface {
	// Initiate создает hosted checkout-сессию для principal-а.
	// principalID берется из проверенного токена; несовпадение с
	// req.UserID - domain.ErrForbidden, шлюз при этом не вызывается.
	Initiate(ctx context.Context, principalID string, r domain.CheckoutRequest) (*domain.CheckoutResponse, error)

	// Confirm подтверждает оплату по session_id: сверяется со шлюзом
	// и идемпотентно фиксирует подписку. nil - подписка зафиксирована
	// (в том числе повторным вызовом), ошибка - причина отказа.
	Confirm(ctx context.Context, sessionID string) error
}

type checkoutService struct {
	repo        repository.SubscriptionRepository
	gateway     stripe.Client
	cache       repository.SessionCache       // Может быть nil: кеш опционален
	producer    producer.SubscriptionProducer // Может быть nil: события best-effort
	metrics     metrics.PaymentMetrics
	baseURL     string
	frontendURL string
	log         *logger.Logger
}

// NewCheckoutService создает новый сервис первичной покупки.
func NewCheckoutService(
	repo repository.SubscriptionRepository,
	gateway stripe.Client,
	cache repository.SessionCache,
	subProducer producer.SubscriptionProducer,
	paymentMetrics metrics.PaymentMetrics,
	baseURL string,
	frontendURL string,
	log *logger.Logger,
) CheckoutService {
	return &checkoutService{
		repo:        repo,
		gateway:     gateway,
		cache:       cache,
		producer:    subProducer,
		metrics:     paymentMetrics,
		baseURL:     baseURL,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Initiate создает checkout-сессию. Сумма уходит в шлюз минорными
// единицами как есть; никакой конвертации на этом шаге нет.
func (s *checkoutService) Initiate(ctx context.Context, principalID string, r domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	s.log.Debug("Initiating checkout for user: %s", r.UserID)

	if err := req.IsValid(r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Авторизация до любого обращения к шлюзу: чужую подписку
	// оплатить нельзя.
	if principalID != r.UserID {
		s.log.Warn("Checkout user mismatch: principal %s, requested %s", principalID, r.UserID)
		return nil, domain.ErrForbidden
	}

	// Шлюз возвращает браузер на наш Confirm, а не на фронтенд напрямую;
	// конечная точка редиректа передается параметром redirect.
	successURL := fmt.Sprintf(
		"%s/createCheckout?type=confirm&session_id={CHECKOUT_SESSION_ID}&redirect=%s",
		s.baseURL, url.QueryEscape(s.frontendURL),
	)

	resp, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		AmountMinor:   r.Amount,
		Currency:      r.Currency,
		ProductName:   checkoutProductName,
		CustomerEmail: r.Email,
		SuccessURL:    successURL,
		CancelURL:     s.frontendURL,
		Metadata: map[string]string{
			domain.MetaUserID: r.UserID,
			domain.MetaTier:   domain.DefaultTier,
		},
	})
	if err != nil {
		s.log.Error("Failed to create checkout session: %v", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCheckoutSessionCreated("checkout")
	}
	s.log.Info("Checkout session created: %s for user %s", resp.ID, r.UserID)
	return resp, nil
}

// Confirm фиксирует оплаченную сессию. Параметры редиректа браузера
// доказательством оплаты не считаются: статус всегда перепроверяется
// у шлюза. Повторный вызов с тем же session_id безопасен.
func (s *checkoutService) Confirm(ctx context.Context, sessionID string) error {
	s.log.Debug("Confirming checkout session: %s", sessionID)

	if sessionID == "" {
		return fmt.Errorf("%w: session_id is required", domain.ErrValidation)
	}

	// Быстрый путь: сессия уже обработана. Недоступность кеша не
	// фатальна, сработают гарды уровня хранилища.
	if s.cache != nil {
		processed, err := s.cache.IsProcessed(ctx, sessionID)
		if err != nil {
			s.log.Warn("Session cache unavailable, falling back to store guards: %v", err)
		} else if processed {
			s.log.Debug("Session %s already processed (cache hit)", sessionID)
			if s.metrics != nil {
				s.metrics.IncSubscriptionCommitted("redirect_replay")
			}
			return nil
		}
	}

	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.failConfirmation("gateway")
		return err
	}

	if !sess.IsPaid() {
		s.log.Warn("Session %s not paid: payment_status=%s status=%s", sessionID, sess.PaymentStatus, sess.Status)
		s.failConfirmation("not_paid")
		return domain.ErrPaymentNotCompleted
	}

	userID := sess.Metadata[domain.MetaUserID]
	email := sess.CustomerEmail
	if userID == "" || email == "" {
		// Сессия без наших метаданных - чужая или подделанная.
		s.log.Warn("Session %s missing user_id or email", sessionID)
		s.failConfirmation("missing_metadata")
		return fmt.Errorf("%w: session metadata incomplete", domain.ErrValidation)
	}

	paymentRef := sess.PaymentReference()

	// Проверка существования перед вставкой. Любая активная строка
	// пользователя означает уже зафиксированную подписку: вторая
	// оплаченная сессия ничего не вставляет, активная строка всегда
	// одна. Окно гонки между проверкой и вставкой закрывает уникальный
	// индекс (user_id, payment_reference).
	existing, err := s.repo.GetActiveByUserID(ctx, userID)
	if err == nil {
		if existing.PaymentReference != paymentRef {
			// Повторная покупка другой сессией. Платеж прошел, но
			// второй строки не будет: рассогласование сверяется вне
			// сервиса.
			s.log.Error("DUPLICATE PAID SESSION: user=%s session=%s ref=%s, active subscription %s has ref=%s",
				userID, sessionID, paymentRef, existing.ID, existing.PaymentReference)
		} else {
			s.log.Debug("Session %s already committed as subscription %s", sessionID, existing.ID)
		}
		s.markProcessed(ctx, sessionID)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.failConfirmation("store")
		return domain.NewStoreError("existence check", err)
	}

	// Срок действия считается только от часов хранилища: ни время
	// клиента, ни параметры редиректа на него не влияют.
	now, err := s.repo.ServerTime(ctx)
	if err != nil {
		s.failConfirmation("store")
		return domain.NewStoreError("server time", err)
	}

	tier := sess.Metadata[domain.MetaTier]
	if tier == "" {
		tier = domain.DefaultTier
	}

	sub := &domain.Subscription{
		ID:               uuid.New(),
		UserID:           userID,
		Email:            email,
		PaymentReference: paymentRef,
		Subscribed:       true,
		Tier:             tier,
		Amount:           domain.MinorToMajor(sess.AmountTotal),
		SubscriptionEnd:  now.Add(domain.MonthlyPeriod),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Конкурентный коммит того же платежа уже прошел.
			s.log.Debug("Session %s committed concurrently, treating as success", sessionID)
			s.markProcessed(ctx, sessionID)
			return nil
		}
		// Оплата прошла, запись не удалась. Платеж не откатываем:
		// сверка выполняется вне сервиса.
		s.log.Error("PAID SESSION NOT PERSISTED: session=%s user=%s: %v", sessionID, userID, err)
		s.failConfirmation("store")
		return domain.NewStoreError("create subscription", err)
	}

	s.markProcessed(ctx, sessionID)
	s.publishActivated(ctx, created)
	if s.metrics != nil {
		s.metrics.IncSubscriptionCommitted("redirect")
		s.metrics.ObserveCommittedAmount(created.Amount, created.Tier)
	}
	s.log.Info("Subscription %s committed for user %s (session %s)", created.ID, userID, sessionID)
	return nil
}

func (s *checkoutService) markProcessed(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkProcessed(ctx, sessionID); err != nil {
		s.log.Warn("Failed to mark session %s as processed: %v", sessionID, err)
	}
}

func (s *checkoutService) publishActivated(ctx context.Context, sub *domain.Subscription) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishSubscriptionActivated(ctx, sub); err != nil {
		s.log.Warn("Failed to publish activation event for %s: %v", sub.ID, err)
	}
}

func (s *checkoutService) failConfirmation(reason string) {
	if s.metrics != nil {
		s.metrics.IncConfirmationFailed(reason)
	}
}
