package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/hayaat-app/payment-service/internal/domain"
)

// statusFromError переводит доменную ошибку в HTTP статус для JSON
// эндпоинтов. Браузерные пути этим не пользуются: там любой исход -
// редирект.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		// ErrGateway, ErrStore и все неожиданное
		return http.StatusInternalServerError
	}
}

// withPaymentFlag добавляет (или перезаписывает) query-параметр payment
// в URL редиректа. Невалидный target возвращается как есть: лучше
// увести пользователя хоть куда-то, чем показать ошибку.
func withPaymentFlag(target, flag string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("payment", flag)
	u.RawQuery = q.Encode()
	return u.String()
}
