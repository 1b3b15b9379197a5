package services

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/repository"
	"chapterauth/internal/utils"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const resetMailSubject = "Password Reset OTP - Student Chapter"

type PasswordService struct {
	repo     UserRepo
	codes    repository.ResetCodeStore
	hasher   PasswordHasher
	notifier Notifier
	codeTTL  time.Duration
}

func NewPasswordService(repo UserRepo, codes repository.ResetCodeStore, hasher PasswordHasher, notifier Notifier, codeTTL time.Duration) *PasswordService {
	if codeTTL <= 0 {
		codeTTL = repository.DefaultResetCodeTTL
	}
	return &PasswordService{
		repo:     repo,
		codes:    codes,
		hasher:   hasher,
		notifier: notifier,
		codeTTL:  codeTTL,
	}
}

// RequestReset выпускает новый одноразовый код и отправляет его на почту.
// Если письмо не ушло, код удаляется: неотправленный код никому не нужен.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return validationErr("Email is required")
	}

	log := logger.WithCtx(ctx)
	log.Info("Запрос на сброс пароля")

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Пользователь для сброса пароля не найден")
			return ErrNotFound
		}
		log.Error("Ошибка поиска пользователя при сбросе", zap.Error(err))
		return internalErr("find account", err)
	}

	code, err := s.codes.Issue(ctx, email)
	if err != nil {
		log.Error("Ошибка выпуска кода сброса", zap.Int64("user_id", user.ID), zap.Error(err))
		return internalErr("issue reset code", err)
	}

	if err := s.notifier.Send(ctx, email, resetMailSubject, s.resetMailBody(code)); err != nil {
		log.Error("Ошибка отправки письма с кодом", zap.Int64("user_id", user.ID), zap.Error(err))
		if delErr := s.codes.Delete(ctx, email); delErr != nil {
			log.Warn("Не удалось удалить неотправленный код", zap.Error(delErr))
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}

	log.Info("Код сброса пароля отправлен", zap.Int64("user_id", user.ID))
	return nil
}

func (s *PasswordService) resetMailBody(code string) string {
	return fmt.Sprintf("Your OTP for password reset is: %s\n\nThis OTP is valid for %s.",
		code, validityText(s.codeTTL))
}

// validityText: "5 minutes", "1 minute", для некруглых значений — "90s".
func validityText(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 minute"
	case d > 0 && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}

// VerifyReset сверяет код. Несовпадение можно повторить до истечения срока.
func (s *PasswordService) VerifyReset(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if email == "" || code == "" {
		return validationErr("Email and OTP are required")
	}

	log := logger.WithCtx(ctx)

	status, err := s.codes.Verify(ctx, email, code)
	if err != nil {
		log.Error("Ошибка проверки кода сброса", zap.Error(err))
		return internalErr("verify reset code", err)
	}

	switch status {
	case repository.ResetCodeVerified:
		log.Info("Код сброса подтверждён")
		return nil
	case repository.ResetCodeExpired:
		log.Warn("Код сброса истёк")
		return ErrCodeExpired
	case repository.ResetCodeMismatch:
		log.Warn("Неверный код сброса")
		return ErrCodeMismatch
	default:
		log.Warn("Код сброса не найден")
		return ErrCodeNotFound
	}
}

// CompleteReset меняет пароль, если код был подтверждён. Запись кода
// расходуется атомарно, поэтому второй вызов получит ErrVerificationRequired.
// Если пароль обновить не удалось, запись возвращается и попытку можно повторить.
func (s *PasswordService) CompleteReset(ctx context.Context, email, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || newPassword == "" {
		return validationErr("Email and new password are required")
	}

	log := logger.WithCtx(ctx)
	log.Info("Попытка сброса пароля по коду")

	// хеш считается до расхода кода: его ошибка не должна сжигать подтверждение
	hashed, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return validationErr(passwordTooLongMsg)
		}
		log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		return internalErr("hash password", err)
	}

	rec, err := s.codes.ConsumeIfVerified(ctx, email)
	if err != nil {
		log.Error("Ошибка чтения кода сброса", zap.Error(err))
		return internalErr("consume reset code", err)
	}
	if rec == nil {
		log.Warn("Сброс пароля без подтверждённого кода")
		return ErrVerificationRequired
	}

	if err := s.repo.UpdatePasswordHash(ctx, email, hashed); err != nil {
		log.Error("Ошибка обновления пароля пользователя", zap.Error(err))
		if restoreErr := s.codes.Restore(ctx, email, rec); restoreErr != nil {
			log.Warn("Не удалось вернуть код сброса", zap.Error(restoreErr))
		}
		return internalErr("update password", err)
	}

	log.Info("Пароль успешно сброшен")
	return nil
}
