package services

import (
	"chapterauth/internal/models"
	"chapterauth/internal/repository"
	"context"
	"errors"
	"sync"
	"time"
)

// Мок-репозиторий: уникальность email как у индекса по lower(email).
type mockUserRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	nextID   int64
	lastUser *models.User

	// skipLookup имитирует гонку: проверка FindByEmail ничего не видит
	skipLookup bool
	findErr    error
	createErr  error
	updateErr  error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrDuplicateAccount
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.Email] = &stored
	m.lastUser = &stored
	return nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.skipLookup {
		return nil, repository.ErrNotFound
	}
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[email]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) hashOf(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u.PasswordHash
	}
	return ""
}

type sentMail struct {
	To, Subject, Body string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *mockNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *mockNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentMail{}
	}
	return n.sent[len(n.sent)-1]
}

func (m *mockUserRepo) setUpdateErr(err error) {
	m.mu.Lock()
	m.updateErr = err
	m.mu.Unlock()
}

type failingHasher struct{}

func (failingHasher) Hash(context.Context, string) (string, error) {
	return "", errors.New("hash failed")
}

func (failingHasher) Verify(context.Context, string, string) (bool, error) {
	return false, errors.New("verify failed")
}
