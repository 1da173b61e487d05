// Package initdatatest builds validly-signed credential strings for tests
// and local tooling. It is the only sanctioned way to construct a
// credential outside the platform; production code must never import it.
package initdatatest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// User is the claims blob written into the "user" field.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// Params describes a credential to build.
type Params struct {
	User       *User
	IssuedAt   time.Time // zero means no auth_date field
	StartParam string    // empty means no start_param field
	Extra      map[string]string
}

// Sign builds a URL-query encoded credential string whose "hash" field is a
// valid tag for the given secret.
func Sign(secret []byte, p Params) string {
	fields := map[string]string{}
	for k, v := range p.Extra {
		fields[k] = v
	}
	if p.User != nil {
		blob, err := json.Marshal(p.User)
		if err != nil {
			panic(err)
		}
		fields["user"] = string(blob)
	}
	if !p.IssuedAt.IsZero() {
		fields["auth_date"] = strconv.FormatInt(p.IssuedAt.Unix(), 10)
	}
	if p.StartParam != "" {
		fields["start_param"] = p.StartParam
	}

	fields["hash"] = Tag(secret, fields)

	q := url.Values{}
	for k, v := range fields {
		q.Set(k, v)
	}
	return q.Encode()
}

// Tag computes the hex tag over the canonical check-string of fields
// (which must not contain a "hash" entry).
func Tag(secret []byte, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	key := sha256.Sum256(secret)
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
