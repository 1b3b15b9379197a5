package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret string
	TokenTTL  string

	Log      string
	LogLevel string
	Env      string // dev|prod

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ResetCodeTTL     string
	HashConcurrency  int
	AllowAdminSignup bool
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует — чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  def(os.Getenv("TOKEN_TTL"), "168h"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     def(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     def(os.Getenv("MAIL_FROM"), os.Getenv("SMTP_USER")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ResetCodeTTL: def(os.Getenv("RESET_CODE_TTL"), "5m"),
	}

	var err error
	if cfg.RedisDB, err = atoiDefault(os.Getenv("REDIS_DB"), 0); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.HashConcurrency, err = atoiDefault(os.Getenv("HASH_CONCURRENCY"), runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("HASH_CONCURRENCY: %w", err)
	}
	if v := strings.TrimSpace(os.Getenv("ALLOW_ADMIN_SIGNUP")); v != "" {
		if cfg.AllowAdminSignup, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("ALLOW_ADMIN_SIGNUP: %w", err)
		}
	}

	return cfg, nil
}

func atoiDefault(v string, d int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return d, nil
	}
	return strconv.Atoi(v)
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	// Критичные: БД
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	// Без секрета токены подписывать нечем
	if strings.TrimSpace(c.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	if _, err := c.TokenTTLDuration(); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if _, err := c.ResetCodeTTLDuration(); err != nil {
		return nil, fmt.Errorf("invalid RESET_CODE_TTL: %w", err)
	}

	// Без SMTP коды можно только писать в лог, а это допустимо лишь в dev
	if !c.SMTPConfigured() {
		if !c.IsDev() {
			return nil, fmt.Errorf("SMTP is not configured (SMTP_HOST/SMTP_USER), required outside ENV=dev")
		}
		warnings = append(warnings, "SMTP is not fully configured, reset codes will only be logged")
	}

	if c.RedisAddr == "" {
		warnings = append(warnings, "REDIS_ADDR is empty, reset codes are kept in process memory")
	}

	if c.AllowAdminSignup {
		warnings = append(warnings, "ALLOW_ADMIN_SIGNUP is on, anyone can register as admin")
	}

	if c.HashConcurrency <= 0 {
		warnings = append(warnings, "HASH_CONCURRENCY must be positive, using 1")
		c.HashConcurrency = 1
	}

	return warnings, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

func (c *Config) TokenTTLDuration() (time.Duration, error) {
	return time.ParseDuration(c.TokenTTL)
}

func (c *Config) ResetCodeTTLDuration() (time.Duration, error) {
	return time.ParseDuration(c.ResetCodeTTL)
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}
