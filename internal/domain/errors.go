package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate дубликат записи (сигнал идемпотентности при вставке)
	ErrDuplicate = errors.New("duplicate record")

	// ErrValidation неверные входные данные
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated учетные данные отсутствуют или невалидны
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden вызывающий не совпадает с владельцем
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidSignature подпись вебхука не прошла проверку
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrPaymentNotCompleted шлюз не подтвердил оплату сессии
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrGateway платежный шлюз недоступен или вернул ошибку
	ErrGateway = errors.New("payment gateway error")

	// ErrStore ошибка хранилища подписок
	ErrStore = errors.New("subscription store error")
)

// GatewayError ошибка взаимодействия с платежным шлюзом.
type GatewayError struct {
	Operation   string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error in %s: %v", e.Operation, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *GatewayError) Unwrap() error {
	return e.OriginalErr
}

// Is позволяет errors.Is(err, ErrGateway)
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// NewGatewayError создает новую ошибку шлюза
func NewGatewayError(operation string, err error) *GatewayError {
	return &GatewayError{Operation: operation, OriginalErr: err}
}

// StoreError ошибка хранилища подписок. Если она возникла после
// подтвержденной оплаты - это репортуемая рассогласованность:
// платеж не откатывается, сверка выполняется вне сервиса.
type StoreError struct {
	Operation   string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error in %s: %v", e.Operation, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *StoreError) Unwrap() error {
	return e.OriginalErr
}

// Is позволяет errors.Is(err, ErrStore)
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError создает новую ошибку хранилища
func NewStoreError(operation string, err error) *StoreError {
	return &StoreError{Operation: operation, OriginalErr: err}
}
