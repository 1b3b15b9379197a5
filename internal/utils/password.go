package utils

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordCost — фиксированный work factor bcrypt.
const PasswordCost = bcrypt.DefaultCost

// ErrPasswordTooLong — bcrypt не принимает пароли длиннее 72 байт.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

const maxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Hasher ограничивает число одновременных bcrypt-вычислений,
// чтобы всплеск логинов не съедал все ядра.
type Hasher struct {
	sem *semaphore.Weighted
}

func NewHasher(concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Hasher{sem: semaphore.NewWeighted(int64(concurrency))}
}

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)
	return HashPassword(password)
}

// Verify возвращает false без ошибки, если пароль не совпал.
func (h *Hasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	// bcrypt при сравнении молча обрезает до 72 байт, а такой пароль сохранить нельзя
	if len(password) > maxPasswordBytes {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
