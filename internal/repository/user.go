package repository

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/models"
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateAccount = errors.New("account with this email already exists")
)

// pgxIface — общее подмножество *pgxpool.Pool и pgxmock.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db pgxIface
}

func NewUserRepository(db pgxIface) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, college, role, github, linkedin, profile, created_at, updated_at`

// Create вставляет аккаунт. Уникальность email обеспечивает индекс по lower(email),
// поэтому гонка двух одновременных регистраций заканчивается ErrDuplicateAccount.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	logger.Log.Info("Создание пользователя (repo)", zap.String("username", user.Username))
	query := `
	INSERT INTO users (username, email, password_hash, college, role, github, linkedin, profile)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.College,
		user.Role,
		user.Github,
		user.Linkedin,
		user.Profile,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccount
		}
		logger.Log.Error("Ошибка создания пользователя (repo)", zap.Error(err))
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по email (repo)")
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по ID (repo)", zap.Int64("user_id", id))
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE lower(email) = lower($2)`,
		passwordHash, email,
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.College,
		&u.Role,
		&u.Github,
		&u.Linkedin,
		&u.Profile,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.Error("Ошибка чтения пользователя (repo)", zap.Error(err))
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
