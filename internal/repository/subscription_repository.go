package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/google/uuid"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения.
// Уникальный индекс (user_id, payment_reference) - авторитетный
// сигнал идемпотентности при гонке двух вставок одного платежа.
const pgUniqueViolation = "23505"

// SubscriptionRepository контракт хранилища подписок.
type SubscriptionRepository interface {
	// GetActiveByUserID возвращает активную подписку пользователя
	// (subscribed = true) или domain.ErrNotFound.
	GetActiveByUserID(ctx context.Context, userID string) (*domain.Subscription, error)

	// GetByID возвращает подписку по ID или domain.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// Create вставляет новую подписку. Повторная вставка того же
	// (user_id, payment_reference) возвращает domain.ErrDuplicate.
	Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)

	// UpdateByID помечает запись оплаченной: subscribed = true, новые
	// amount и subscription_end. Запись ищется по паре (id, user_id);
	// несовпадение владельца - domain.ErrNotFound. Повторное применение
	// тех же значений безопасно.
	UpdateByID(ctx context.Context, id uuid.UUID, userID string, amount float64, subscriptionEnd time.Time) error

	// ServerTime возвращает текущее время по часам хранилища.
	// subscription_end выводится только из него, никогда из данных клиента.
	ServerTime(ctx context.Context) (time.Time, error)
}

// PostgresSubscriptionRepository реализация хранилища подписок через PostgreSQL.
type PostgresSubscriptionRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresSubscriptionRepository создает новый репозиторий подписок через PostgreSQL.
func NewPostgresSubscriptionRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:  db,
		log: log,
	}
}

const subscriptionColumns = `
	id, user_id, email, payment_reference, subscribed,
	tier, amount, subscription_end, created_at, updated_at
`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Email,
		&sub.PaymentReference,
		&sub.Subscribed,
		&sub.Tier,
		&sub.Amount,
		&sub.SubscriptionEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &sub, nil
}

// GetActiveByUserID возвращает активную подписку пользователя.
func (r *PostgresSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND subscribed = true
		ORDER BY created_at DESC
		LIMIT 1
	`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return sub, nil
}

// GetByID возвращает подписку по ID.
func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1
	`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// Create вставляет новую подписку в базу данных.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
		INSERT INTO subscriptions (
			id, user_id, email, payment_reference, subscribed,
			tier, amount, subscription_end, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, now(), now()
		)
		RETURNING id, created_at, updated_at
	`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err := r.db.QueryRow(
		ctx,
		query,
		sub.ID,
		sub.UserID,
		sub.Email,
		sub.PaymentReference,
		sub.Subscribed,
		sub.Tier,
		sub.Amount,
		sub.SubscriptionEnd,
	).Scan(
		&sub.ID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.log.Debugw("Duplicate subscription insert suppressed", "userID", sub.UserID, "paymentReference", sub.PaymentReference)
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return sub, nil
}

// UpdateByID помечает подписку оплаченной, новые amount и subscription_end.
func (r *PostgresSubscriptionRepository) UpdateByID(ctx context.Context, id uuid.UUID, userID string, amount float64, subscriptionEnd time.Time) error {
	query := `
		UPDATE subscriptions
		SET
			subscribed = true,
			amount = $1,
			subscription_end = $2,
			updated_at = now()
		WHERE id = $3 AND user_id = $4
	`

	result, err := r.db.Exec(ctx, query, amount, subscriptionEnd, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ServerTime возвращает текущее время по часам базы данных.
func (r *PostgresSubscriptionRepository) ServerTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.QueryRow(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to read server time: %w", err)
	}
	return now, nil
}
