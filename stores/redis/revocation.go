// Package redis keeps a list of signed-out sessions in Redis so that their
// tokens are rejected before they expire.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/travito/travito"
)

// RevocationList implements travito.Revoker. Each revoked session id is a
// key that expires when the token would have expired anyway.
type RevocationList struct {
	client *goredis.Client
	prefix string
}

var _ travito.Revoker = (*RevocationList)(nil)

func NewRevocationList(client *goredis.Client) *RevocationList {
	return &RevocationList{
		client: client,
		prefix: "travito:revoked:",
	}
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid REDIS_URL: %w", travito.ErrConfiguration, err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %w", travito.ErrPersistence, err)
	}
	return client, nil
}

func (l *RevocationList) key(sessionID string) string {
	return l.prefix + sessionID
}

func (l *RevocationList) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	if sessionID == "" {
		return fmt.Errorf("revocation: missing session id")
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired, nothing to remember.
		return nil
	}
	if err := l.client.Set(ctx, l.key(sessionID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke session: %w", travito.ErrPersistence, err)
	}
	return nil
}

func (l *RevocationList) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	err := l.client.Get(ctx, l.key(sessionID)).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: check revocation: %w", travito.ErrPersistence, err)
	}
	return true, nil
}
