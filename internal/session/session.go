// Package session mints and reads stateless session tokens. A token stands
// in for a previously verified identity so later requests skip full
// credential verification; it is trusted by signature alone, with no store
// lookup.
package session

import (
	"crypto/sha256"
	"io"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
)

// DefaultTTL bounds session lifetime when the caller does not configure one.
const DefaultTTL = 12 * time.Hour

// keyInfo separates the session signing key from other uses of the shared
// secret during HKDF expansion.
const keyInfo = "refkeeper/session/v1"

// Issuer signs and parses HS256 session tokens bound to a principal id.
type Issuer struct {
	signKey []byte
	ttl     time.Duration
}

// NewIssuer derives a dedicated signing key from the shared secret via
// HKDF-SHA256, so a leaked session key never exposes the verifier secret.
// ttl <= 0 falls back to DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return &Issuer{signKey: key, ttl: ttl}, nil
}

// Issue mints a session token for the principal id.
func (i *Issuer) Issue(principalID int64) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(principalID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{SessionToken: signed, ExpiresAt: exp}, nil
}

// Read recovers the principal id from a token. Any signature, expiry or
// shape failure maps to ErrInvalidSession.
func (i *Issuer) Read(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return i.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, errs.ErrInvalidSession
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id < 0 {
		return 0, errs.ErrInvalidSession
	}
	return id, nil
}
