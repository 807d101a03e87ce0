package travito

import (
	"context"
	"time"
)

// User is an account in the credential store.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	Image          string     `json:"image,omitempty"`
	HashedPassword *string    `json:"-"` // nil for OAuth-only accounts
	EmailVerified  *time.Time `json:"emailVerified,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// HasPassword reports whether the account can sign in with the credentials provider.
func (u *User) HasPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}

// Public returns the fields that are safe to hand back to callers.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		EmailVerified: u.EmailVerified,
	}
}

// PublicUser is the projection of a User without credential material.
type PublicUser struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Image         string     `json:"image,omitempty"`
	EmailVerified *time.Time `json:"emailVerified"`
}

// Account links a User to an identity at an external OAuth provider.
type Account struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Provider          string    `json:"provider"`            // "github", "google"
	ProviderAccountID string    `json:"provider_account_id"` // the provider's stable user id
	CreatedAt         time.Time `json:"created_at"`
}

// UserStore manages user accounts.
type UserStore interface {
	// GetUserByEmail looks up a user by exact email match.
	// Returns ErrUserNotFound if there is none.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// CreateUser inserts a new user. A uniqueness violation on email
	// must surface as ErrDuplicateAccount.
	CreateUser(ctx context.Context, user *User) error
}

// AccountStore manages provider links
type AccountStore interface {
	// GetAccount returns ErrAccountNotFound if the provider identity is not linked.
	GetAccount(ctx context.Context, provider, providerAccountID string) (*Account, error)

	// CreateUserWithAccount creates the user and its first provider link atomically.
	CreateUserWithAccount(ctx context.Context, user *User, account *Account) error

	// GetUserAccounts returns all provider links of a user.
	GetUserAccounts(ctx context.Context, userID string) ([]*Account, error)
}

// AuthUserStore combines the store interfaces needed for authentication
type AuthUserStore interface {
	UserStore
	AccountStore
}

// Revoker records sessions that were signed out before their natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactStore persists contact form submissions
type ContactStore interface {
	SaveContactMessage(ctx context.Context, msg *ContactMessage) error
}
