package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/integration/stripe"
	"github.com/hayaat-app/payment-service/internal/kafka/producer"
	"github.com/hayaat-app/payment-service/internal/metrics"
	"github.com/hayaat-app/payment-service/internal/repository"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/hayaat-app/payment-service/pkg/req"
	"github.com/google/uuid"
)

const renewalProductName = "Hayaat Subscription Renewal"

// Коды завершения продления. Обработчик транслирует их в query-флаг
// payment= редиректа, исключений наружу не бывает.
const (
	RenewalSuccess = "success"
	RenewalFailed  = "failed"
	RenewalDBError = "db_error"
	RenewalError   = "error"
)

// RenewalService интерфейс сервиса продления существующей подписки.
// В отличие от первичной покупки продление всегда работает по известному
// ID строки: подтверждение только обновляет, никогда не вставляет.
type RenewalService interface {
	// Initiate создает checkout-сессию продления. Целевая строка и новый
	// срок кодируются в метаданных сессии, поэтому завершению не нужен
	// промежуточный браузерный шаг.
	Initiate(ctx context.Context, principalID string, r domain.RenewalRequest) (*domain.CheckoutResponse, error)

	// Complete применяет оплаченную сессию продления и возвращает код
	// завершения для редиректа.
	Complete(ctx context.Context, sessionID string) string
}

type renewalService struct {
	repo     repository.SubscriptionRepository
	gateway  stripe.Client
	cache    repository.SessionCache       // Может быть nil
	producer producer.SubscriptionProducer // Может быть nil
	metrics  metrics.PaymentMetrics
	baseURL  string
	log      *logger.Logger
}

// NewRenewalService создает новый сервис продления.
func NewRenewalService(
	repo repository.SubscriptionRepository,
	gateway stripe.Client,
	cache repository.SessionCache,
	subProducer producer.SubscriptionProducer,
	paymentMetrics metrics.PaymentMetrics,
	baseURL string,
	log *logger.Logger,
) RenewalService {
	return &renewalService{
		repo:     repo,
		gateway:  gateway,
		cache:    cache,
		producer: subProducer,
		metrics:  paymentMetrics,
		baseURL:  baseURL,
		log:      log,
	}
}

// Initiate создает сессию продления. Сумма везде в минорных единицах:
// и в шлюз, и в метаданные уходит одно и то же значение, перевод в
// основные единицы произойдет один раз при записи в хранилище.
func (s *renewalService) Initiate(ctx context.Context, principalID string, r domain.RenewalRequest) (*domain.CheckoutResponse, error) {
	s.log.Debug("Initiating renewal for subscription: %s", r.SubscriptionID)

	if err := req.IsValid(r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if principalID != r.UserID {
		s.log.Warn("Renewal user mismatch: principal %s, requested %s", principalID, r.UserID)
		return nil, domain.ErrForbidden
	}

	subID, err := uuid.Parse(r.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription_id is not a valid UUID", domain.ErrValidation)
	}
	if _, err := parseSubscriptionEnd(r.NewSubscriptionEnd); err != nil {
		return nil, fmt.Errorf("%w: new_subscription_end: %v", domain.ErrValidation, err)
	}

	// Строка должна существовать и принадлежать вызывающему до похода в шлюз.
	existing, err := s.repo.GetByID(ctx, subID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.log.Error("Failed to load subscription %s: %v", subID, err)
		return nil, domain.NewStoreError("get subscription", err)
	}
	if existing.UserID != r.UserID {
		s.log.Warn("Renewal target owned by another user: subscription %s", subID)
		return nil, domain.ErrForbidden
	}

	successURL := fmt.Sprintf(
		"%s/updateSubscription?session_id={CHECKOUT_SESSION_ID}",
		s.baseURL,
	)

	resp, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		AmountMinor:   r.Amount,
		Currency:      r.Currency,
		ProductName:   renewalProductName,
		CustomerEmail: r.Email,
		SuccessURL:    successURL,
		CancelURL:     s.baseURL + "/updateSubscription?session_id=cancelled",
		Metadata: map[string]string{
			domain.MetaUserID:             r.UserID,
			domain.MetaSubscriptionID:     r.SubscriptionID,
			domain.MetaNewSubscriptionEnd: r.NewSubscriptionEnd,
			domain.MetaAmount:             strconv.FormatInt(r.Amount, 10),
		},
	})
	if err != nil {
		s.log.Error("Failed to create renewal session: %v", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCheckoutSessionCreated("renewal")
	}
	s.log.Info("Renewal session created: %s for subscription %s", resp.ID, r.SubscriptionID)
	return resp, nil
}

// Complete завершает продление. Любой исход - это код редиректа:
// браузер пользователя никогда не видит ошибку как таковую.
func (s *renewalService) Complete(ctx context.Context, sessionID string) string {
	s.log.Debug("Completing renewal session: %s", sessionID)

	if sessionID == "" || sessionID == "cancelled" {
		return RenewalError
	}

	if s.cache != nil {
		processed, err := s.cache.IsProcessed(ctx, sessionID)
		if err != nil {
			s.log.Warn("Session cache unavailable: %v", err)
		} else if processed {
			s.log.Debug("Renewal session %s already processed (cache hit)", sessionID)
			return RenewalSuccess
		}
	}

	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.log.Error("Failed to fetch renewal session %s: %v", sessionID, err)
		s.failRenewal("gateway")
		return RenewalError
	}

	// Продлению достаточно факта оплаты: статус завершения сессии,
	// в отличие от первичной покупки, здесь не требуется.
	if sess.PaymentStatus != domain.PaymentStatusPaid {
		s.log.Warn("Renewal session %s not paid: payment_status=%s", sessionID, sess.PaymentStatus)
		s.failRenewal("not_paid")
		return RenewalFailed
	}

	update, code := s.parseRenewalMetadata(sess.Metadata)
	if code != RenewalSuccess {
		return code
	}

	// Обновление по паре (id, user_id): чужая или несуществующая строка
	// не затрагивается. Повторное применение тех же значений безопасно.
	err = s.repo.UpdateByID(ctx, update.subscriptionID, update.userID, update.amount, update.subscriptionEnd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("Renewal target not found: subscription=%s user=%s", update.subscriptionID, update.userID)
			s.failRenewal("not_found")
			return RenewalFailed
		}
		// Оплата уже прошла; платеж не откатываем.
		s.log.Error("PAID RENEWAL NOT PERSISTED: session=%s subscription=%s: %v", sessionID, update.subscriptionID, err)
		s.failRenewal("store")
		return RenewalDBError
	}

	if s.cache != nil {
		if cacheErr := s.cache.MarkProcessed(ctx, sessionID); cacheErr != nil {
			s.log.Warn("Failed to mark renewal session %s as processed: %v", sessionID, cacheErr)
		}
	}
	s.publishRenewed(ctx, update)
	if s.metrics != nil {
		s.metrics.IncSubscriptionCommitted("renewal")
		s.metrics.ObserveCommittedAmount(update.amount, domain.DefaultTier)
	}
	s.log.Info("Renewal committed: subscription=%s user=%s", update.subscriptionID, update.userID)
	return RenewalSuccess
}

type renewalUpdate struct {
	subscriptionID  uuid.UUID
	userID          string
	amount          float64
	subscriptionEnd time.Time
}

// parseRenewalMetadata разбирает метаданные сессии продления.
// Сумма в метаданных минорная, здесь - единственная точка конвертации.
func (s *renewalService) parseRenewalMetadata(meta map[string]string) (renewalUpdate, string) {
	var u renewalUpdate

	rawID := meta[domain.MetaSubscriptionID]
	u.userID = meta[domain.MetaUserID]
	rawEnd := meta[domain.MetaNewSubscriptionEnd]
	rawAmount := meta[domain.MetaAmount]
	if rawID == "" || u.userID == "" || rawEnd == "" || rawAmount == "" {
		s.log.Warn("Renewal session metadata incomplete: %v", meta)
		s.failRenewal("missing_metadata")
		return u, RenewalFailed
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		s.log.Warn("Invalid subscription_id in metadata: %s", rawID)
		s.failRenewal("missing_metadata")
		return u, RenewalFailed
	}
	u.subscriptionID = id

	end, err := parseSubscriptionEnd(rawEnd)
	if err != nil {
		s.log.Warn("Invalid new_subscription_end in metadata: %s", rawEnd)
		s.failRenewal("missing_metadata")
		return u, RenewalFailed
	}
	u.subscriptionEnd = end

	minor, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		s.log.Warn("Invalid amount in metadata: %s", rawAmount)
		s.failRenewal("missing_metadata")
		return u, RenewalFailed
	}
	u.amount = domain.MinorToMajor(minor)

	return u, RenewalSuccess
}

func (s *renewalService) publishRenewed(ctx context.Context, u renewalUpdate) {
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

func (s *renewalService) failRenewal(reason string) {
	if s.metrics != nil {
		s.metrics.IncConfirmationFailed(reason)
	}
}

// parseSubscriptionEnd принимает RFC3339 либо дату без времени.
func parseSubscriptionEnd(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
