package handlers

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/services"
	helpers "chapterauth/internal/utils/helpers"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc  *services.PasswordService
	errs errorWriter
}

func NewPasswordHandler(svc *services.PasswordService, exposeInternalErrors bool) *PasswordHandler {
	return &PasswordHandler{svc: svc, errs: errorWriter{exposeInternal: exposeInternalErrors}}
}

type forgotReq struct {
	Email string `json:"email"`
}

// Forgot godoc
// @Summary Запрос кода для сброса пароля
// @Description Отправляет на почту одноразовый 6-значный код, действующий 5 минут.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 200 {object} helpers.MessageResponse
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /api/password/forgot [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный payload в Forgot", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		log.Warn("Сбой при запросе сброса пароля", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		h.errs.write(r.Context(), w, err, "Failed to send OTP")
		return
	}

	log.Info("Код сброса отправлен", zap.String("email_masked", maskEmail(req.Email)))
	helpers.Message(w, http.StatusOK, "OTP sent successfully")
}

type verifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	OTP   string `json:"otp"`
}

// Verify godoc
// @Summary Проверка кода сброса пароля
// @Tags password
// @Accept json
// @Produce json
// @Param input body verifyReq true "Email и код из письма"
// @Success 200 {object} helpers.MessageResponse
// @Failure 400 {object} helpers.ErrorResponse "Код неверный, истёк или не найден"
// @Router /api/password/verify [post]
func (h *PasswordHandler) Verify(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный payload в Verify", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := req.Code
	if code == "" {
		code = req.OTP
	}

	if err := h.svc.VerifyReset(r.Context(), req.Email, code); err != nil {
		log.Warn("Код сброса не принят", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		h.errs.write(r.Context(), w, err, "Error verifying OTP")
		return
	}

	helpers.Message(w, http.StatusOK, "OTP verified successfully")
}

type resetReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
	// старое имя поля, его до сих пор шлют некоторые клиенты
	LegacyNewPassword string `json:"new_password"`
}

// Reset godoc
// @Summary Сброс пароля после подтверждения кода
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Email и новый пароль"
// @Success 200 {object} helpers.MessageResponse
// @Failure 400 {object} helpers.ErrorResponse "Код не подтверждён"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /api/password/reset [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный payload в Reset", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	newPassword := req.NewPassword
	if newPassword == "" {
		newPassword = req.LegacyNewPassword
	}

	if err := h.svc.CompleteReset(r.Context(), req.Email, newPassword); err != nil {
		log.Warn("Не удалось сбросить пароль", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		h.errs.write(r.Context(), w, err, "Error resetting password")
		return
	}

	log.Info("Пароль успешно сброшен", zap.String("email_masked", maskEmail(req.Email)))
	helpers.Message(w, http.StatusOK, "Password reset successful")
}
