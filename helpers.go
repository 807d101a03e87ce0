package travito

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored password hashes.
const PasswordCost = 12

// dummyHash is compared against when there is no real hash to check so that
// unknown emails and OAuth-only accounts cost the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("travito-timing-equalizer"), PasswordCost)
	return h
})

// NewCreateUserFunc creates a CreateUserFunc from a user store
func NewCreateUserFunc(store UserStore) CreateUserFunc {
	return func(ctx context.Context, reg *Registration) (*User, error) {
		if authErr := ValidateStruct(reg); authErr != nil {
			return nil, authErr
		}

		// Check if email already exists. The store's unique constraint still
		// decides concurrent inserts.
		if _, err := store.GetUserByEmail(ctx, reg.Email); err == nil {
			return nil, ErrDuplicateAccount
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: lookup user: %w", ErrPersistence, err)
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), PasswordCost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, NewAuthError(ErrCodeTooLong, "password is too long", "password").Wrap(ErrValidation)
		} else if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash := string(passwordHash)

		// No email confirmation step exists, so registration marks the email verified.
		now := time.Now().UTC()
		user := &User{
			ID:             uuid.NewString(),
			Email:          reg.Email,
			Name:           reg.Name,
			HashedPassword: &hash,
			EmailVerified:  &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, ErrDuplicateAccount) {
				return nil, ErrDuplicateAccount
			}
			return nil, fmt.Errorf("%w: create user: %w", ErrPersistence, err)
		}

		slog.InfoContext(ctx, "created local user", "user_id", user.ID)
		return user, nil
	}
}

// NewCredentialsValidator creates a CredentialsValidator from a user store
func NewCredentialsValidator(store UserStore) CredentialsValidator {
	return func(ctx context.Context, email, password string) (*User, error) {
		if email == "" || password == "" {
			return nil, fmt.Errorf("%w: email and password required", ErrValidation)
		}

		user, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, ErrUserNotFound) {
				return nil, fmt.Errorf("%w: lookup user: %w", ErrPersistence, err)
			}
			bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}

		if !user.HasPassword() {
			bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}

		if err := bcrypt.CompareHashAndPassword([]byte(*user.HashedPassword), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		return user, nil
	}
}

// ProviderProfile is the normalized identity an OAuth provider returned.
type ProviderProfile struct {
	ProviderAccountID string
	Email             string
	Name              string
	Image             string
}

// ProfileFromUserInfo reads the normalized userInfo map produced by the
// oauth2 package ("id", "email", "name", "picture").
func ProfileFromUserInfo(userInfo map[string]any) ProviderProfile {
	str := func(key string) string {
		switch v := userInfo[key].(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return fmt.Sprintf("%.0f", v)
		case fmt.Stringer:
			return v.String()
		}
		return ""
	}
	return ProviderProfile{
		ProviderAccountID: str("id"),
		Email:             str("email"),
		Name:              str("name"),
		Image:             str("picture"),
	}
}

// EnsureOAuthUserFunc resolves a provider identity to a local user,
// creating the user on first sign-in.
type EnsureOAuthUserFunc func(ctx context.Context, provider string, profile ProviderProfile) (*User, error)

// NewEnsureOAuthUserFunc creates an EnsureOAuthUserFunc from stores.
//
// Linking is by provider identity only: if the email is already registered
// without a link to this provider the sign-in fails with ErrAccountNotLinked
// rather than attaching the provider to someone else's account.
func NewEnsureOAuthUserFunc(store AuthUserStore) EnsureOAuthUserFunc {
	return func(ctx context.Context, provider string, profile ProviderProfile) (*User, error) {
		if profile.Email == "" {
			return nil, fmt.Errorf("%w: %s did not return an email address", ErrValidation, provider)
		}
		if profile.ProviderAccountID == "" {
			return nil, fmt.Errorf("%w: %s did not return an account id", ErrValidation, provider)
		}

		account, err := store.GetAccount(ctx, provider, profile.ProviderAccountID)
		switch {
		case err == nil:
			user, err := store.GetUserByID(ctx, account.UserID)
			if err != nil {
				return nil, fmt.Errorf("%w: load linked user: %w", ErrPersistence, err)
			}
			return user, nil
		case !errors.Is(err, ErrAccountNotFound):
			return nil, fmt.Errorf("%w: lookup account: %w", ErrPersistence, err)
		}

		if _, err := store.GetUserByEmail(ctx, profile.Email); err == nil {
			slog.WarnContext(ctx, "oauth email belongs to an unlinked account", "provider", provider)
			return nil, ErrAccountNotLinked
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: lookup user: %w", ErrPersistence, err)
		}

		name := profile.Name
		if name == "" {
			name = strings.SplitN(profile.Email, "@", 2)[0]
		}
		now := time.Now().UTC()
		user := &User{
			ID:            uuid.NewString(),
			Email:         profile.Email,
			Name:          name,
			Image:         profile.Image,
			EmailVerified: &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		account = &Account{
			ID:                uuid.NewString(),
			UserID:            user.ID,
			Provider:          provider,
			ProviderAccountID: profile.ProviderAccountID,
			CreatedAt:         now,
		}
		if err := store.CreateUserWithAccount(ctx, user, account); err != nil {
			if errors.Is(err, ErrDuplicateAccount) {
				// A concurrent first sign-in with the same identity wins the
				// insert; any other collision is on the email.
				if linked, lerr := store.GetAccount(ctx, provider, profile.ProviderAccountID); lerr == nil {
					user, err := store.GetUserByID(ctx, linked.UserID)
					if err != nil {
						return nil, fmt.Errorf("%w: load linked user: %w", ErrPersistence, err)
					}
					return user, nil
				}
				return nil, ErrAccountNotLinked
			}
			return nil, fmt.Errorf("%w: create oauth user: %w", ErrPersistence, err)
		}

		slog.InfoContext(ctx, "created oauth user", "user_id", user.ID, "provider", provider)
		return user, nil
	}
}
