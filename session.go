package travito

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionMaxAge is how long a minted session stays valid.
const DefaultSessionMaxAge = 30 * 24 * time.Hour

// Session is the verified projection of a session token. It is never a
// source of truth: profile fields are whatever was embedded at mint time.
type Session struct {
	Subject  string    `json:"sub"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Image    string    `json:"image,omitempty"`
	ID       string    `json:"jti"`
	IssuedAt time.Time `json:"iat"`
	Expires  time.Time `json:"expires"`
}

// SessionClaims are the JWT claims of a session token
type SessionClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies stateless HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	issuer string
	maxAge time.Duration

	// Optional. When set, signed-out sessions are rejected until they expire.
	Revoker Revoker

	now func() time.Time
}

func NewSessionIssuer(secret, issuer string, maxAge time.Duration) (*SessionIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session signing secret is empty", ErrConfiguration)
	}
	if issuer == "" {
		issuer = "travito"
	}
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &SessionIssuer{
		secret: []byte(secret),
		issuer: issuer,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// MaxAge returns the lifetime of minted tokens.
func (s *SessionIssuer) MaxAge() time.Duration { return s.maxAge }

// Mint signs a token whose subject is the user's identifier.
func (s *SessionIssuer) Mint(user *User) (token string, expires time.Time, err error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("cannot mint a session without a user id")
	}
	now := s.now().UTC().Truncate(time.Second)
	expires = now.Add(s.maxAge)
	claims := SessionClaims{
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expires, nil
}

// Session verifies a token and returns the session it carries, or nil when
// the token is missing, malformed, forged, expired or revoked.
func (s *SessionIssuer) Session(ctx context.Context, tokenString string) *Session {
	if tokenString == "" {
		return nil
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		slog.DebugContext(ctx, "rejecting session token", "error", err)
		return nil
	}
	if s.Revoker != nil {
		revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Revocation is best effort; the signature already checked out.
			slog.WarnContext(ctx, "revocation lookup failed", "error", err)
		} else if revoked {
			return nil
		}
	}
	return claimsToSession(claims)
}

// Revoke marks the token's session as signed out until it would have expired.
// Tokens that no longer verify need no revocation.
func (s *SessionIssuer) Revoke(ctx context.Context, tokenString string) error {
	if s.Revoker == nil || tokenString == "" {
		return nil
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	return s.Revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *SessionIssuer) parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("subject not found")
	}
	return claims, nil
}

func claimsToSession(c *SessionClaims) *Session {
	out := &Session{
		Subject: c.Subject,
		Name:    c.Name,
		Email:   c.Email,
		Image:   c.Picture,
		ID:      c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.Expires = c.ExpiresAt.Time
	}
	return out
}
