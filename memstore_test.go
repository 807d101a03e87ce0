package travito_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/travito/travito"
)

// memStore is an in-memory AuthUserStore for tests.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*travito.User // by id
	accounts []*travito.Account

	// When set, returned by every call
	failWith error
	// When set, CreateUser reports a unique violation even though the
	// pre-check found no user, as a concurrent insert would.
	raceOnCreate bool
	// When set, runs once before CreateUserWithAccount inserts, standing in
	// for a concurrent sign-in.
	beforeLink func()
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*travito.User{}}
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*travito.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, travito.ErrUserNotFound
}

func (m *memStore) GetUserByID(ctx context.Context, id string) (*travito.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, travito.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateUser(ctx context.Context, user *travito.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if m.raceOnCreate {
		return travito.ErrDuplicateAccount
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return travito.ErrDuplicateAccount
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetAccount(ctx context.Context, provider, providerAccountID string) (*travito.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, a := range m.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, travito.ErrAccountNotFound
}

func (m *memStore) CreateUserWithAccount(ctx context.Context, user *travito.User, account *travito.Account) error {
	if hook := m.beforeLink; hook != nil {
		m.beforeLink = nil
		hook()
	}
	if _, err := m.GetAccount(ctx, account.Provider, account.ProviderAccountID); err == nil {
		return travito.ErrDuplicateAccount
	}
	if err := m.CreateUser(ctx, user); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts = append(m.accounts, &cp)
	return nil
}

func (m *memStore) GetUserAccounts(ctx context.Context, userID string) ([]*travito.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*travito.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// addUser seeds a user. An empty password makes an OAuth-only account.
// MinCost keeps the tests fast; verification works for any cost.
func (m *memStore) addUser(t *testing.T, name, email, password string) *travito.User {
	t.Helper()
	now := time.Now().UTC()
	u := &travito.User{ID: uuid.NewString(), Name: name, Email: email, EmailVerified: &now, CreatedAt: now, UpdatedAt: now}
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		hash := string(h)
		u.HashedPassword = &hash
	}
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	return u
}

func (m *memStore) link(userID, provider, providerAccountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, &travito.Account{
		ID: uuid.NewString(), UserID: userID, Provider: provider, ProviderAccountID: providerAccountID, CreatedAt: time.Now(),
	})
}

func newTestIssuer(t *testing.T) *travito.SessionIssuer {
	t.Helper()
	issuer, err := travito.NewSessionIssuer("test-signing-secret", "travito", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create issuer: %v", err)
	}
	return issuer
}
