package services

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/models"
	"chapterauth/internal/repository"
	"chapterauth/internal/utils"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const passwordTooLongMsg = "Password is too long"

type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

type TokenIssuer interface {
	Issue(accountID int64, role string) (string, error)
}

type AuthService struct {
	repo             UserRepo
	hasher           PasswordHasher
	tokens           TokenIssuer
	allowAdminSignup bool
}

func NewAuthService(repo UserRepo, hasher PasswordHasher, tokens TokenIssuer, allowAdminSignup bool) *AuthService {
	return &AuthService{
		repo:             repo,
		hasher:           hasher,
		tokens:           tokens,
		allowAdminSignup: allowAdminSignup,
	}
}

// NormalizeEmail — ключ уникальности аккаунта.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт аккаунт. Возвращённый пользователь без хеша пароля.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)
	college := strings.TrimSpace(in.College)

	if username == "" || email == "" || in.Password == "" || college == "" {
		return nil, validationErr("Please fill all required fields")
	}

	role, err := s.resolveRole(in.Role)
	if err != nil {
		return nil, err
	}

	log := logger.WithCtx(ctx)
	log.Info("Регистрация пользователя (service)", zap.String("username", username))

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		log.Warn("Email уже зарегистрирован (service)")
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Error("Ошибка проверки email", zap.Error(err))
		return nil, internalErr("check existing account", err)
	}

	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, validationErr(passwordTooLongMsg)
		}
		log.Error("Ошибка хеширования пароля", zap.Error(err))
		return nil, internalErr("hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		College:      college,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// гонка двух регистраций: проверка выше прошла у обеих, индекс пропустил одну
		if errors.Is(err, repository.ErrDuplicateAccount) {
			log.Warn("Email уже зарегистрирован (race, service)")
			return nil, ErrConflict
		}
		log.Error("Ошибка создания пользователя", zap.Error(err))
		return nil, internalErr("create account", err)
	}

	log.Info("Пользователь зарегистрирован (service)", zap.Int64("user_id", user.ID))
	out := *user
	out.PasswordHash = ""
	return &out, nil
}

func (s *AuthService) resolveRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", models.RoleUser:
		return models.RoleUser, nil
	case models.RoleAdmin:
		if !s.allowAdminSignup {
			return "", validationErr("Admin role cannot be self-assigned")
		}
		return models.RoleAdmin, nil
	default:
		return "", validationErr("Unknown role")
	}
}

// Login проверяет пароль и выдаёт сессионный токен.
// Отсутствие аккаунта и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	log := logger.WithCtx(ctx)
	log.Info("Попытка входа (service)")

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Пользователь не найден (service)")
			return nil, ErrInvalidCredentials
		}
		log.Error("Ошибка получения пользователя", zap.Error(err))
		return nil, internalErr("find account", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		log.Error("Ошибка проверки пароля", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, internalErr("verify password", err)
	}
	if !ok {
		log.Warn("Неверный пароль (service)", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Error("Ошибка генерации токена", zap.Error(err))
		return nil, internalErr("issue token", err)
	}

	log.Info("Вход выполнен (service)", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return &models.LoginResult{Account: user.Summary(), Token: token}, nil
}

func (s *AuthService) GetAccount(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		logger.WithCtx(ctx).Error("Ошибка получения пользователя по ID", zap.Int64("user_id", id), zap.Error(err))
		return nil, internalErr("find account", err)
	}
	return user, nil
}

func (s *AuthService) GetAccountByEmail(ctx context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, validationErr("Email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		logger.WithCtx(ctx).Error("Ошибка получения пользователя по email", zap.Error(err))
		return nil, internalErr("find account", err)
	}
	return user, nil
}
