package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travito/travito"
	gormstore "github.com/travito/travito/stores/gorm"
)

func newTestDB(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gormstore.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared", gormstore.Options{})
	require.NoError(t, err)
	require.NoError(t, gormstore.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gormstore.NewStore(db)
}

func newUser(email string) *travito.User {
	hash := "$2a$12$notarealhashbutlongenoughtolookliketheone"
	now := time.Now().UTC()
	return &travito.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           "Ann",
		HashedPassword: &hash,
		EmailVerified:  &now,
	}
}

func TestDialect(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@localhost:5432/travito", "postgres"},
		{"postgresql://localhost/travito?sslmode=disable", "postgres"},
		{"file:travito.db", "sqlite"},
		{"sqlite:travito.db", "sqlite"},
		{"./data/travito.db", "sqlite"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gormstore.Dialect(tt.url), tt.url)
	}
}

func TestOpenRejectsEmptyURL(t *testing.T) {
	_, err := gormstore.Open("", gormstore.Options{})
	assert.ErrorIs(t, err, travito.ErrConfiguration)
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	user := newUser("ann@x.com")
	require.NoError(t, store.CreateUser(ctx, user))

	byEmail, err := store.GetUserByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.True(t, byEmail.HasPassword())
	require.NotNil(t, byEmail.EmailVerified)

	byID, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", byID.Email)
}

func TestGetUserNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	_, err := store.GetUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, travito.ErrUserNotFound)

	_, err = store.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, travito.ErrUserNotFound)
}

func TestEmailLookupIsExact(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)
	require.NoError(t, store.CreateUser(ctx, newUser("ann@x.com")))

	_, err := store.GetUserByEmail(ctx, "ANN@x.com")
	assert.ErrorIs(t, err, travito.ErrUserNotFound)
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)
	require.NoError(t, store.CreateUser(ctx, newUser("ann@x.com")))

	err := store.CreateUser(ctx, newUser("ann@x.com"))
	assert.ErrorIs(t, err, travito.ErrDuplicateAccount)
}

func TestCreateUserWithAccount(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	user := newUser("octo@x.com")
	user.HashedPassword = nil
	account := &travito.Account{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		Provider:          "github",
		ProviderAccountID: "12345",
	}
	require.NoError(t, store.CreateUserWithAccount(ctx, user, account))

	got, err := store.GetAccount(ctx, "github", "12345")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	stored, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPassword())

	accounts, err := store.GetUserAccounts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "github", accounts[0].Provider)
}

func TestCreateUserWithAccountIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	first := newUser("first@x.com")
	require.NoError(t, store.CreateUserWithAccount(ctx, first, &travito.Account{
		ID: uuid.NewString(), UserID: first.ID, Provider: "github", ProviderAccountID: "1",
	}))

	// Same provider identity again: the account insert fails, so the user must not persist.
	second := newUser("second@x.com")
	err := store.CreateUserWithAccount(ctx, second, &travito.Account{
		ID: uuid.NewString(), UserID: second.ID, Provider: "github", ProviderAccountID: "1",
	})
	require.ErrorIs(t, err, travito.ErrDuplicateAccount)

	_, err = store.GetUserByEmail(ctx, "second@x.com")
	assert.ErrorIs(t, err, travito.ErrUserNotFound)
}

func TestGetAccountNotFound(t *testing.T) {
	store := newTestDB(t)
	_, err := store.GetAccount(context.Background(), "google", "nope")
	assert.ErrorIs(t, err, travito.ErrAccountNotFound)
}

func TestContactStore(t *testing.T) {
	ctx := context.Background()
	db, err := gormstore.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared", gormstore.Options{})
	require.NoError(t, err)
	require.NoError(t, gormstore.AutoMigrate(db))
	contacts := gormstore.NewContactStore(db)

	for i, subject := range []string{"first", "second"} {
		require.NoError(t, contacts.SaveContactMessage(ctx, &travito.ContactMessage{
			ID:        uuid.NewString(),
			Name:      "Ann",
			Email:     "ann@x.com",
			Subject:   subject,
			Message:   "hello",
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := contacts.ListContactMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Subject)
}
