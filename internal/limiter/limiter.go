// Package limiter defines interfaces and implementations for throttling
// failed credential verifications per client IP.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls verification attempts and temporary lockouts. Keys are
// hashed client IPs; verification has no account name before it succeeds.
type Limiter interface {
	// Allow reports whether verification is currently allowed and optional retry-after.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful verification.
	Success(ctx context.Context, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}
