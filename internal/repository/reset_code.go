package repository

import (
	"chapterauth/internal/models"
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"
)

// DefaultResetCodeTTL — сколько живёт код сброса пароля.
const DefaultResetCodeTTL = 5 * time.Minute

type ResetCodeStatus int

const (
	ResetCodeNotFound ResetCodeStatus = iota
	ResetCodeVerified
	ResetCodeExpired
	ResetCodeMismatch
)

func (s ResetCodeStatus) String() string {
	switch s {
	case ResetCodeVerified:
		return "verified"
	case ResetCodeExpired:
		return "expired"
	case ResetCodeMismatch:
		return "mismatch"
	default:
		return "not_found"
	}
}

// ResetCodeStore хранит не больше одного активного кода на email.
// Ключ — нормализованный email.
type ResetCodeStore interface {
	// Issue выпускает новый код, затирая предыдущий.
	Issue(ctx context.Context, email string) (string, error)
	// Verify сверяет код; несовпадение запись не удаляет, истёкшая запись удаляется.
	Verify(ctx context.Context, email, code string) (ResetCodeStatus, error)
	// ConsumeIfVerified атомарно удаляет подтверждённую и не истёкшую запись
	// и возвращает её. nil — подтверждённой записи нет.
	ConsumeIfVerified(ctx context.Context, email string) (*models.ResetCode, error)
	// Restore возвращает израсходованную запись, если смена пароля не удалась.
	// Более новый код, выпущенный за это время, не затирается.
	Restore(ctx context.Context, email string, rec *models.ResetCode) error
	Delete(ctx context.Context, email string) error
}

var codeRange = big.NewInt(900000)

// generateResetCode — равномерный код из диапазона 100000–999999.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// MemoryResetCodeStore держит коды в памяти процесса; после рестарта
// пользователь просто запрашивает код заново.
type MemoryResetCodeStore struct {
	mu        sync.Mutex
	records   map[string]*models.ResetCode
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryResetCodeStore(ttl time.Duration) *MemoryResetCodeStore {
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}
	return &MemoryResetCodeStore{
		records: make(map[string]*models.ResetCode),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryResetCodeStore) Issue(_ context.Context, email string) (string, error) {
	code, err := generateResetCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	s.records[email] = &models.ResetCode{
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
	}
	return code, nil
}

func (s *MemoryResetCodeStore) Verify(_ context.Context, email, code string) (ResetCodeStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return ResetCodeNotFound, nil
	}
	if rec.Expired(s.now()) {
		delete(s.records, email)
		return ResetCodeExpired, nil
	}
	if rec.Code != code {
		return ResetCodeMismatch, nil
	}
	rec.Verified = true
	return ResetCodeVerified, nil
}

func (s *MemoryResetCodeStore) ConsumeIfVerified(_ context.Context, email string) (*models.ResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return nil, nil
	}
	if rec.Expired(s.now()) {
		delete(s.records, email)
		return nil, nil
	}
	if !rec.Verified {
		return nil, nil
	}
	delete(s.records, email)
	cp := *rec
	return &cp, nil
}

func (s *MemoryResetCodeStore) Restore(_ context.Context, email string, rec *models.ResetCode) error {
	if rec == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[email]; exists || rec.Expired(s.now()) {
		return nil
	}
	cp := *rec
	cp.Verified = true
	s.records[email] = &cp
	return nil
}

func (s *MemoryResetCodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.records, email)
	s.mu.Unlock()
	return nil
}

// sweepLocked раз в ttl выкидывает истёкшие записи, чтобы карта не росла бесконечно.
func (s *MemoryResetCodeStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	for email, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, email)
		}
	}
	s.lastSweep = now
}

func (s *MemoryResetCodeStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
