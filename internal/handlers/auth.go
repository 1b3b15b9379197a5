package handlers

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/models"
	"chapterauth/internal/reqctx"
	"chapterauth/internal/services"
	helpers "chapterauth/internal/utils/helpers"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	errs        errorWriter
}

func NewAuthHandler(authService *services.AuthService, exposeInternalErrors bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		errs:        errorWriter{exposeInternal: exposeInternalErrors},
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	College  string `json:"college"`
	Role     string `json:"role,omitempty"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Account models.AccountSummary `json:"account"`
	Token   string                `json:"token"`
	Role    string                `json:"role"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 201 {object} registerResponse
// @Failure 400 {object} helpers.ErrorResponse "Не заполнены обязательные поля"
// @Failure 409 {object} helpers.ErrorResponse "Аккаунт уже существует"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /api/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	log.Info("Регистрация пользователя", zap.String("username", req.Username), zap.String("email_masked", maskEmail(req.Email)))

	user, err := h.authService.Register(r.Context(), models.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		College:  req.College,
		Role:     req.Role,
	})
	if err != nil {
		log.Warn("Ошибка регистрации пользователя", zap.Error(err))
		h.errs.write(r.Context(), w, err, "Registration failed")
		return
	}

	helpers.JSON(w, http.StatusCreated, registerResponse{
		Message: "Registration successful",
		User:    user,
	})
}

// Login godoc
// @Summary Авторизация пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 406 {object} helpers.ErrorResponse "Неверный email или пароль"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	log.Info("Попытка входа", zap.String("email_masked", maskEmail(req.Email)))

	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn("Ошибка входа пользователя", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		h.errs.write(r.Context(), w, err, "Login failed")
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{
		Account: res.Account,
		Token:   res.Token,
		Role:    res.Account.Role,
	})
}

// Profile godoc
// @Summary Получить данные профиля
// @Tags profile
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} userResponse
// @Failure 401 {object} helpers.ErrorResponse "Нет доступа"
// @Failure 404 {object} helpers.ErrorResponse
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := reqctx.GetAccountID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetAccount(r.Context(), id)
	if err != nil {
		h.errs.write(r.Context(), w, err, "")
		return
	}
	helpers.JSON(w, http.StatusOK, userResponse{User: user})
}

// GetUserByEmail godoc
// @Summary Найти пользователя по email (админ)
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Param email query string true "Email пользователя"
// @Success 200 {object} userResponse
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 403 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Router /api/admin/users [get]
func (h *AuthHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetAccountByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.errs.write(r.Context(), w, err, "")
		return
	}
	helpers.JSON(w, http.StatusOK, userResponse{User: user})
}
