package travito

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter interface for rate limiting sign-in and registration attempts
type RateLimiter interface {
	Allow(key string) bool
}

// ClientIP returns the best guess of the caller's address, preferring
// proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	// Check X-Real-IP header
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func rateLimitKey(r *http.Request, subject string) string {
	return ClientIP(r) + ":" + strings.ToLower(subject)
}
