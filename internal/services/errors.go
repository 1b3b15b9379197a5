package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("account already exists")
	ErrNotFound             = errors.New("no account found with this email")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrCodeNotFound         = errors.New("reset code expired or not found")
	ErrCodeExpired          = errors.New("reset code expired")
	ErrCodeMismatch         = errors.New("invalid reset code")
	ErrVerificationRequired = errors.New("reset code verification required")
	ErrDeliveryFailure      = errors.New("failed to deliver reset code")
	ErrInternal             = errors.New("internal error")
)

// ValidationError — ошибка входных данных с сообщением для клиента.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

// internalErr оборачивает причину так, что errors.Is(err, ErrInternal) истинно,
// а исходный текст остаётся доступен для dev-диагностики.
func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
