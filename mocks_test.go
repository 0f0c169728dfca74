package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/promptcraft/auth-service"
)

var errMailDown = errors.New("smtp connection refused")

func testConfig() *auth.Config {
	return &auth.Config{
		Environment:          "test",
		SigningKey:           "test-signing-key-which-is-long-enough",
		SigningMethod:        "HS256",
		Issuer:               "promptcraft-test",
		AccessTokenTTL:       30 * time.Minute,
		RefreshTokenTTL:      168 * time.Hour,
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
	}
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

// quickHash keeps the flow tests fast; the production cost factor is
// exercised separately in the bcrypt tests.
func quickHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}

// memoryUsers is an in-memory Users implementation mimicking the storage
// guarantees the flows rely on, including unique email/username enforcement.
type memoryUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{nextID: 1, byID: map[int64]*auth.User{}}
}

func (m *memoryUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	return m.CreateTx(ctx, nil, user)
}

func (m *memoryUsers) CreateTx(_ context.Context, _ bun.IDB, user *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, auth.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return nil, auth.ErrDuplicateUsername
		}
	}

	user.ID = m.nextID
	m.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt

	stored := *user
	m.byID[user.ID] = &stored

	return user, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return m.GetByEmailTx(ctx, nil, email)
}

func (m *memoryUsers) GetByEmailTx(_ context.Context, _ bun.IDB, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byID {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memoryUsers) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return m.GetByUsernameTx(ctx, nil, username)
}

func (m *memoryUsers) GetByUsernameTx(_ context.Context, _ bun.IDB, username string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byID {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memoryUsers) SetVerified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	user.IsVerified = true
	user.UpdatedAt = time.Now()
	return nil
}

func (m *memoryUsers) ResetPassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memoryUsers) setActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[id]; ok {
		user.IsActive = active
	}
}

var _ auth.Users = (*memoryUsers)(nil)

// memoryRepo satisfies RepositoryManager for flow tests. Transactions are a
// pass-through; atomicity is the real store's concern.
type memoryRepo struct {
	users *memoryUsers
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: newMemoryUsers()}
}

func (m *memoryRepo) Validate() error { return nil }
func (m *memoryRepo) MustValidate()   {}

func (m *memoryRepo) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *memoryRepo) Users() auth.Users { return m.users }

var _ auth.RepositoryManager = (*memoryRepo)(nil)

// MockEmailDispatcher implements auth.EmailDispatcher
type MockEmailDispatcher struct {
	mock.Mock
}

func (m *MockEmailDispatcher) SendVerificationEmail(ctx context.Context, email, link string) error {
	args := m.Called(ctx, email, link)
	return args.Error(0)
}

func (m *MockEmailDispatcher) SendPasswordResetEmail(ctx context.Context, email, link string) error {
	args := m.Called(ctx, email, link)
	return args.Error(0)
}

// recordingDispatcher captures the last link per address so tests can replay
// the emailed tokens.
type recordingDispatcher struct {
	mu                sync.Mutex
	verificationLinks map[string]string
	resetLinks        map[string]string
	failVerification  bool
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{
		verificationLinks: map[string]string{},
		resetLinks:        map[string]string{},
	}
}

func (d *recordingDispatcher) SendVerificationEmail(_ context.Context, email, link string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failVerification {
		return errMailDown
	}
	d.verificationLinks[email] = link
	return nil
}

func (d *recordingDispatcher) SendPasswordResetEmail(_ context.Context, email, link string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLinks[email] = link
	return nil
}

func (d *recordingDispatcher) verificationToken(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return tokenFromLink(d.verificationLinks[email])
}

func (d *recordingDispatcher) resetToken(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return tokenFromLink(d.resetLinks[email])
}

func tokenFromLink(link string) string {
	if link == "" {
		return ""
	}
	if idx := strings.LastIndex(link, "token="); idx >= 0 {
		return link[idx+len("token="):]
	}
	return link
}
