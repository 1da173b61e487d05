// Package initdata verifies platform-issued credential strings.
//
// A credential string is a URL-query encoded set of key=value pairs. One
// pair ("hash") carries a hex-encoded HMAC-SHA256 tag computed by the
// platform over the remaining pairs joined as "key=value" lines, sorted by
// key. The signing key is the SHA-256 digest of the deployment's shared
// secret. Verification is a pure function of the credential string, the
// secret, the clock and the max-age policy.
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
)

// Field names fixed by the platform's credential format.
const (
	tagField    = "hash"
	claimsField = "user"
	issuedField = "auth_date"
	hintField   = "start_param"
)

// DefaultMaxAge bounds credential freshness when the caller does not
// configure one.
const DefaultMaxAge = 24 * time.Hour

// Verifier validates credential strings against a shared secret.
type Verifier struct {
	signKey []byte
	maxAge  time.Duration
	now     func() time.Time
}

// NewVerifier constructs a Verifier. maxAge <= 0 falls back to DefaultMaxAge.
func NewVerifier(secret []byte, maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	key := sha256.Sum256(secret)
	return &Verifier{signKey: key[:], maxAge: maxAge, now: time.Now}
}

// Verify checks the tag, freshness and claims of a raw credential string
// and returns the trusted claim. Failures map to the errs sentinels:
// ErrMalformedCredential, ErrBadSignature, ErrStaleCredential,
// ErrMalformedClaims.
func (v *Verifier) Verify(raw string) (model.PrincipalClaim, error) {
	fields, tag, err := decompose(raw)
	if err != nil {
		return model.PrincipalClaim{}, err
	}

	mac := hmac.New(sha256.New, v.signKey)
	mac.Write([]byte(checkString(fields)))
	if !hmac.Equal(mac.Sum(nil), tag) {
		return model.PrincipalClaim{}, errs.ErrBadSignature
	}

	var issuedAt time.Time
	if ad, ok := fields[issuedField]; ok {
		sec, err := strconv.ParseInt(ad, 10, 64)
		if err != nil {
			return model.PrincipalClaim{}, fmt.Errorf("%w: bad %s", errs.ErrMalformedCredential, issuedField)
		}
		issuedAt = time.Unix(sec, 0)
		if v.now().Sub(issuedAt) > v.maxAge {
			return model.PrincipalClaim{}, errs.ErrStaleCredential
		}
	}

	claim, err := parseClaims(fields[claimsField])
	if err != nil {
		return model.PrincipalClaim{}, err
	}
	claim.StartParam = fields[hintField]
	claim.IssuedAt = issuedAt
	return claim, nil
}

// decompose splits the raw string into scalar fields and the decoded tag.
func decompose(raw string) (map[string]string, []byte, error) {
	if raw == "" {
		return nil, nil, errs.ErrMalformedCredential
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, nil, errs.ErrMalformedCredential
	}
	fields := make(map[string]string, len(values))
	for k, vs := range values {
		// the platform never repeats a key; a repeat means tampering or garbage
		if len(vs) != 1 {
			return nil, nil, errs.ErrMalformedCredential
		}
		fields[k] = vs[0]
	}
	tagHex, ok := fields[tagField]
	if !ok {
		return nil, nil, errs.ErrMalformedCredential
	}
	delete(fields, tagField)
	tag, err := hex.DecodeString(tagHex)
	if err != nil {
		return nil, nil, errs.ErrBadSignature
	}
	return fields, tag, nil
}

// checkString joins all non-tag pairs as "key=value" lines sorted by key.
// The byte-exact layout must match what the platform signed.
func checkString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	return strings.Join(pairs, "\n")
}

// userClaims is the fixed claims schema: id is required, the rest optional.
type userClaims struct {
	ID        *int64 `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

func parseClaims(blob string) (model.PrincipalClaim, error) {
	if blob == "" {
		return model.PrincipalClaim{}, fmt.Errorf("%w: missing %s field", errs.ErrMalformedClaims, claimsField)
	}
	var uc userClaims
	if err := json.Unmarshal([]byte(blob), &uc); err != nil {
		return model.PrincipalClaim{}, fmt.Errorf("%w: %v", errs.ErrMalformedClaims, err)
	}
	if uc.ID == nil || *uc.ID < 0 {
		return model.PrincipalClaim{}, fmt.Errorf("%w: missing principal id", errs.ErrMalformedClaims)
	}
	return model.PrincipalClaim{
		ID:        *uc.ID,
		FirstName: uc.FirstName,
		Username:  uc.Username,
		PhotoURL:  uc.PhotoURL,
	}, nil
}
