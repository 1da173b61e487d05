// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Verification and session failure kinds. Each maps to exactly one
// machine-readable reason at the transport boundary.
var (
	// ErrMalformedCredential indicates the credential string could not be
	// decomposed into key/value pairs or lacks the authentication tag.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrBadSignature indicates the authentication tag does not match.
	ErrBadSignature = errors.New("bad signature")

	// ErrStaleCredential indicates the credential's freshness timestamp is
	// older than the configured maximum age.
	ErrStaleCredential = errors.New("stale credential")

	// ErrMalformedClaims indicates the claims blob is missing, unparsable,
	// or lacks a principal id.
	ErrMalformedClaims = errors.New("malformed claims")

	// ErrInvalidSession indicates a session token failed signature or
	// expiry checks.
	ErrInvalidSession = errors.New("invalid session")
)

// Store and configuration failure kinds.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConfigMissing indicates a required deployment identifier is unset.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrStorageUnavailable indicates a store write or read failed or timed
	// out; the only retryable kind, and only after backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRateLimited indicates a temporary verification lock due to
	// repeated failures from the same client.
	ErrRateLimited = errors.New("rate limited")
)
