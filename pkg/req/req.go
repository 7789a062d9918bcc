package req

import (
	"encoding/json"
	"io"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Decode декодирует JSON из io.Reader в структуру типа T.
func Decode[T any](body io.Reader) (T, error) {
	var payload T
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// IsValid валидирует структуру типа T по validate-тегам.
func IsValid[T any](payload T) error {
	return validate.Struct(payload)
}
