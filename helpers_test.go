package travito_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/travito/travito"
)

func TestCredentialsValidator(t *testing.T) {
	store := newMemStore()
	ann := store.addUser(t, "Ann", "ann@x.com", "secret123")
	store.addUser(t, "Olly", "olly@x.com", "") // OAuth-only

	validate := travito.NewCredentialsValidator(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"correct password", "ann@x.com", "secret123", nil},
		{"wrong password", "ann@x.com", "wrong", travito.ErrInvalidCredentials},
		{"unknown email", "nobody@x.com", "secret123", travito.ErrInvalidCredentials},
		{"email match is exact", "ANN@x.com", "secret123", travito.ErrInvalidCredentials},
		{"oauth-only account", "olly@x.com", "anything", travito.ErrInvalidCredentials},
		{"oauth-only account, empty-looking password", "olly@x.com", " ", travito.ErrInvalidCredentials},
		{"empty email", "", "secret123", travito.ErrValidation},
		{"empty password", "ann@x.com", "", travito.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := validate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected error %v, got %v", tt.wantErr, err)
				}
				if user != nil {
					t.Errorf("Expected no user on failure, got %+v", user)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected success, got %v", err)
			}
			if user.ID != ann.ID {
				t.Errorf("Expected user %s, got %s", ann.ID, user.ID)
			}
		})
	}
}

func TestCredentialsValidator_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failWith = errors.New("connection refused")

	_, err := travito.NewCredentialsValidator(store)(context.Background(), "ann@x.com", "pw")
	if !errors.Is(err, travito.ErrPersistence) {
		t.Errorf("Expected ErrPersistence, got %v", err)
	}
	if errors.Is(err, travito.ErrInvalidCredentials) {
		t.Error("Store failures must not look like bad credentials")
	}
}

func TestCreateUser(t *testing.T) {
	store := newMemStore()
	create := travito.NewCreateUserFunc(store)
	ctx := context.Background()

	user, err := create(ctx, &travito.Registration{Name: "Ann", Email: "ann@x.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected an identifier to be assigned")
	}
	if user.EmailVerified == nil {
		t.Error("Expected registration to set emailVerified")
	}
	if user.HashedPassword == nil || *user.HashedPassword == "secret123" {
		t.Fatal("Expected the stored password to be hashed")
	}
	if !strings.HasPrefix(*user.HashedPassword, "$2a$12$") {
		t.Errorf("Expected bcrypt cost 12, got hash %q", (*user.HashedPassword)[:7])
	}

	// The same plaintext signs in afterwards
	signedIn, err := travito.NewCredentialsValidator(store)(ctx, "ann@x.com", "secret123")
	if err != nil {
		t.Fatalf("Expected sign-in to succeed, got %v", err)
	}
	if signedIn.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, signedIn.ID)
	}

	// Duplicate email creates no row
	_, err = create(ctx, &travito.Registration{Name: "Ann Again", Email: "ann@x.com", Password: "other-password"})
	if !errors.Is(err, travito.ErrDuplicateAccount) {
		t.Errorf("Expected ErrDuplicateAccount, got %v", err)
	}
	if store.count() != 1 {
		t.Errorf("Expected 1 user after duplicate attempt, got %d", store.count())
	}
}

func TestCreateUser_Validation(t *testing.T) {
	create := travito.NewCreateUserFunc(newMemStore())

	tests := []struct {
		name      string
		reg       travito.Registration
		wantField string
	}{
		{"missing name", travito.Registration{Email: "a@x.com", Password: "pw"}, "name"},
		{"missing email", travito.Registration{Name: "A", Password: "pw"}, "email"},
		{"missing password", travito.Registration{Name: "A", Email: "a@x.com"}, "password"},
		{"malformed email", travito.Registration{Name: "A", Email: "not-an-email", Password: "pw"}, "email"},
		{"password longer than bcrypt accepts", travito.Registration{Name: "A", Email: "a@x.com", Password: strings.Repeat("p", 73)}, "password"},
		{"multibyte password within 72 runes", travito.Registration{Name: "A", Email: "a@x.com", Password: strings.Repeat("ü", 37)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := tt.reg
			_, err := create(context.Background(), &reg)
			if !errors.Is(err, travito.ErrValidation) {
				t.Fatalf("Expected ErrValidation, got %v", err)
			}
			var authErr *travito.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("Expected an AuthError, got %T", err)
			}
			if authErr.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, authErr.Field)
			}
		})
	}
}

func TestCreateUser_ConcurrentInsertLosesRace(t *testing.T) {
	store := newMemStore()
	store.raceOnCreate = true

	_, err := travito.NewCreateUserFunc(store)(context.Background(), &travito.Registration{Name: "Ann", Email: "ann@x.com", Password: "pw"})
	if !errors.Is(err, travito.ErrDuplicateAccount) {
		t.Errorf("Expected ErrDuplicateAccount from a unique violation, got %v", err)
	}
}

func TestEnsureOAuthUser(t *testing.T) {
	ctx := context.Background()

	t.Run("first sign-in creates a verified user and link", func(t *testing.T) {
		store := newMemStore()
		ensure := travito.NewEnsureOAuthUserFunc(store)

		user, err := ensure(ctx, "github", travito.ProviderProfile{ProviderAccountID: "42", Email: "gh@x.com", Name: "Octo", Image: "https://img/1"})
		if err != nil {
			t.Fatalf("Expected success, got %v", err)
		}
		if user.HasPassword() {
			t.Error("OAuth users must not have a password")
		}
		if user.EmailVerified == nil {
			t.Error("Expected emailVerified to be set on first OAuth sign-in")
		}
		if user.Name != "Octo" || user.Image != "https://img/1" {
			t.Errorf("Expected profile fields to be copied, got %+v", user)
		}
		accounts, _ := store.GetUserAccounts(ctx, user.ID)
		if len(accounts) != 1 || accounts[0].Provider != "github" {
			t.Errorf("Expected one github link, got %+v", accounts)
		}

		// Second sign-in resolves through the link
		again, err := ensure(ctx, "github", travito.ProviderProfile{ProviderAccountID: "42", Email: "gh@x.com"})
		if err != nil {
			t.Fatalf("Expected second sign-in to succeed, got %v", err)
		}
		if again.ID != user.ID {
			t.Errorf("Expected the same user, got %s and %s", user.ID, again.ID)
		}
		if store.count() != 1 {
			t.Errorf("Expected 1 user, got %d", store.count())
		}
	})

	t.Run("email of another account is not linked", func(t *testing.T) {
		store := newMemStore()
		store.addUser(t, "Ann", "ann@x.com", "secret123")

		_, err := travito.NewEnsureOAuthUserFunc(store)(ctx, "google", travito.ProviderProfile{ProviderAccountID: "g-1", Email: "ann@x.com"})
		if !errors.Is(err, travito.ErrAccountNotLinked) {
			t.Errorf("Expected ErrAccountNotLinked, got %v", err)
		}
		if travito.SignInErrorCode(err) != travito.SignInErrorNotLinked {
			t.Errorf("Expected code %s, got %s", travito.SignInErrorNotLinked, travito.SignInErrorCode(err))
		}
	})

	t.Run("linked under a different provider", func(t *testing.T) {
		store := newMemStore()
		u := store.addUser(t, "Gil", "gil@x.com", "")
		store.link(u.ID, "github", "7")

		_, err := travito.NewEnsureOAuthUserFunc(store)(ctx, "google", travito.ProviderProfile{ProviderAccountID: "g-7", Email: "gil@x.com"})
		if !errors.Is(err, travito.ErrAccountNotLinked) {
			t.Errorf("Expected ErrAccountNotLinked, got %v", err)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := travito.NewEnsureOAuthUserFunc(newMemStore())(ctx, "github", travito.ProviderProfile{ProviderAccountID: "1"})
		if !errors.Is(err, travito.ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("concurrent first sign-in with the same identity", func(t *testing.T) {
		store := newMemStore()
		var winner *travito.User
		store.beforeLink = func() {
			winner = store.addUser(t, "Octo", "octo@x.com", "")
			store.link(winner.ID, "github", "42")
		}

		user, err := travito.NewEnsureOAuthUserFunc(store)(ctx, "github", travito.ProviderProfile{ProviderAccountID: "42", Email: "octo@x.com"})
		if err != nil {
			t.Fatalf("Expected the linked user, got %v", err)
		}
		if user.ID != winner.ID {
			t.Errorf("Expected user %s, got %s", winner.ID, user.ID)
		}
		if store.count() != 1 {
			t.Errorf("Expected 1 user, got %d", store.count())
		}
	})

	t.Run("concurrent sign-in by another identity with the same email", func(t *testing.T) {
		store := newMemStore()
		store.beforeLink = func() {
			u := store.addUser(t, "Octo", "octo@x.com", "")
			store.link(u.ID, "github", "7")
		}

		_, err := travito.NewEnsureOAuthUserFunc(store)(ctx, "github", travito.ProviderProfile{ProviderAccountID: "42", Email: "octo@x.com"})
		if !errors.Is(err, travito.ErrAccountNotLinked) {
			t.Errorf("Expected ErrAccountNotLinked, got %v", err)
		}
	})

	t.Run("name falls back to the email local part", func(t *testing.T) {
		user, err := travito.NewEnsureOAuthUserFunc(newMemStore())(ctx, "google", travito.ProviderProfile{ProviderAccountID: "1", Email: "zoe@x.com"})
		if err != nil {
			t.Fatalf("Expected success, got %v", err)
		}
		if user.Name != "zoe" {
			t.Errorf("Expected name zoe, got %q", user.Name)
		}
	})
}

func TestProfileFromUserInfo(t *testing.T) {
	p := travito.ProfileFromUserInfo(map[string]any{
		"id":      float64(12345),
		"email":   " a@x.com ",
		"name":    "A",
		"picture": "https://img",
	})
	if p.ProviderAccountID != "12345" {
		t.Errorf("Expected numeric id to render as 12345, got %q", p.ProviderAccountID)
	}
	if p.Email != "a@x.com" {
		t.Errorf("Expected trimmed email, got %q", p.Email)
	}
	if p.Image != "https://img" {
		t.Errorf("Expected picture, got %q", p.Image)
	}
}
