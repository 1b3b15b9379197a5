package app

import (
	"chapterauth/internal/config"
	"chapterauth/internal/db"
	"chapterauth/internal/handlers"
	"chapterauth/internal/logger"
	"chapterauth/internal/repository"
	"chapterauth/internal/routes"
	"chapterauth/internal/services"
	"chapterauth/internal/utils"
	"context"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App держит открытые соединения, чтобы main мог их закрыть.
type App struct {
	Router *mux.Router
	pool   *pgxpool.Pool
	redis  *redis.Client
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	tokenTTL, err := cfg.TokenTTLDuration()
	if err != nil {
		return nil, fmt.Errorf("token ttl: %w", err)
	}
	codeTTL, err := cfg.ResetCodeTTLDuration()
	if err != nil {
		return nil, fmt.Errorf("reset code ttl: %w", err)
	}

	conn, err := db.NewPostgresConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a := &App{pool: conn}

	if err := db.RunMigrations(ctx, conn); err != nil {
		a.Close()
		return nil, err
	}
	logger.Log.Info("Подключение к БД установлено", zap.String("dsn", cfg.GetDSNSafe()))

	// Репозитории
	userRepo := repository.NewUserRepository(conn)

	var codes repository.ResetCodeStore
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		codes = repository.NewRedisResetCodeStore(a.redis, "reset_code", codeTTL)
		logger.Log.Info("Коды сброса хранятся в Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		codes = repository.NewMemoryResetCodeStore(codeTTL)
	}

	var notifier services.Notifier
	switch {
	case cfg.SMTPConfigured():
		notifier = services.NewEmailService(cfg)
	case cfg.IsDev():
		notifier = services.NewLogNotifier(logger.Log)
		logger.Log.Warn("SMTP не настроен, коды сброса пишутся в лог (dev)")
	default:
		a.Close()
		return nil, fmt.Errorf("smtp is not configured")
	}

	// Сервисы
	hasher := utils.NewHasher(cfg.HashConcurrency)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, tokenTTL)
	authService := services.NewAuthService(userRepo, hasher, tokens, cfg.AllowAdminSignup)
	passwordService := services.NewPasswordService(userRepo, codes, hasher, notifier, codeTTL)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, cfg.IsDev())
	passwordHandler := handlers.NewPasswordHandler(passwordService, cfg.IsDev())

	// Маршруты
	a.Router = mux.NewRouter()
	routes.InitRoutes(a.Router, authHandler, passwordHandler, cfg.JWTSecret)

	return a, nil
}
