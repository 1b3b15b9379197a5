package handlers

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/services"
	helpers "chapterauth/internal/utils/helpers"
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// errorWriter переводит ошибки сервисов в HTTP-ответы.
// Текст внутренней ошибки попадает в ответ только в dev-окружении.
type errorWriter struct {
	exposeInternal bool
}

// statusFor — единая таблица соответствия ошибок и кодов ответа.
// 406 на неверные учётные данные — сложившийся контракт API, клиенты на него завязаны.
func statusFor(err error) (int, string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, "Account already exists"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusNotAcceptable, "Invalid email or password"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "No account found with this email"
	case errors.Is(err, services.ErrCodeNotFound):
		return http.StatusBadRequest, "OTP expired or not found"
	case errors.Is(err, services.ErrCodeExpired):
		return http.StatusBadRequest, "OTP expired"
	case errors.Is(err, services.ErrCodeMismatch):
		return http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, services.ErrVerificationRequired):
		return http.StatusBadRequest, "OTP verification required"
	case errors.Is(err, services.ErrDeliveryFailure):
		return http.StatusInternalServerError, "Failed to send OTP"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (e errorWriter) write(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		if fallback != "" && !errors.Is(err, services.ErrDeliveryFailure) {
			msg = fallback
		}
		logger.WithCtx(ctx).Error("Запрос завершился внутренней ошибкой", zap.Error(err))
		if e.exposeInternal {
			helpers.ErrorWithDetail(w, status, msg, err.Error())
			return
		}
	}
	helpers.Error(w, status, msg)
}

// maskEmail прячет локальную часть адреса в логах: b***@x.com
func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
