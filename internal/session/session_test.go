package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/d1sturb/refkeeper/internal/errs"
)

func TestIssueRead_RoundTrip(t *testing.T) {
	t.Parallel()

	iss, err := NewIssuer([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	tok, err := iss.Issue(123)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.SessionToken == "" || !tok.ExpiresAt.After(time.Now()) {
		t.Fatalf("bad tokens: %+v", tok)
	}

	id, err := iss.Read(tok.SessionToken)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if id != 123 {
		t.Fatalf("id=%d, want=123", id)
	}
}

func TestRead_Corrupted(t *testing.T) {
	t.Parallel()

	iss, err := NewIssuer([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	tok, err := iss.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for _, bad := range []string{
		"",
		"garbage",
		tok.SessionToken + "x",
		strings.Replace(tok.SessionToken, ".", "_", 1),
	} {
		if _, err := iss.Read(bad); !errors.Is(err, errs.ErrInvalidSession) {
			t.Fatalf("Read(%q): err=%v, want ErrInvalidSession", bad, err)
		}
	}
}

func TestRead_WrongKey(t *testing.T) {
	t.Parallel()

	a, _ := NewIssuer([]byte("secret-a"), time.Hour)
	b, _ := NewIssuer([]byte("secret-b"), time.Hour)
	tok, err := a.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Read(tok.SessionToken); !errors.Is(err, errs.ErrInvalidSession) {
		t.Fatalf("err=%v, want ErrInvalidSession", err)
	}
}

func TestRead_Expired(t *testing.T) {
	t.Parallel()

	iss, err := NewIssuer([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	// token signed with the issuer's key but already expired
	claims := jwt.RegisteredClaims{
		Subject:   "5",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.signKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := iss.Read(signed); !errors.Is(err, errs.ErrInvalidSession) {
		t.Fatalf("err=%v, want ErrInvalidSession", err)
	}
}

func TestIssuer_KeyDiffersFromSecret(t *testing.T) {
	t.Parallel()

	secret := []byte("shared-secret")
	iss, err := NewIssuer(secret, time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	if string(iss.signKey) == string(secret) {
		t.Fatalf("session key must not equal the shared secret")
	}
}
