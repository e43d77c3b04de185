// Package sign derives auth codes and token signatures from the shared
// secret. Everything here is a pure function of its inputs: same worker,
// same instant, same secret — same output. Verification is recomputation,
// never lookup.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	authCodeLen  = 8  // hex chars, upper-cased
	signatureLen = 16 // hex chars
	tokenIDLen   = 8  // hex chars
)

// ErrEmptySecret is returned when constructing a Signer without a secret.
var ErrEmptySecret = errors.New("signing secret must not be empty")

// Signer holds the shared secret and derives all keyed digests. The secret
// is never logged and never appears in any output.
type Signer struct {
	secret []byte
}

// New creates a Signer. The secret must be non-empty.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// AuthCode derives the short-lived authorization code for a worker at a
// given issue instant (unix seconds). Deterministic and keyed: 8 uppercase
// hex characters.
func (s *Signer) AuthCode(workerID string, issueTime int64) string {
	msg := workerID + strconv.FormatInt(issueTime, 10) + string(s.secret)
	return strings.ToUpper(s.digest(msg)[:authCodeLen])
}

// TokenSignature derives the tamper-evident signature binding a token's
// worker ID, expiry, and token ID together. 16 lowercase hex characters.
func (s *Signer) TokenSignature(workerID string, expireTime int64, tokenID string) string {
	msg := workerID + strconv.FormatInt(expireTime, 10) + tokenID
	return s.digest(msg)[:signatureLen]
}

// TokenID derives an opaque per-issuance identifier from the worker ID and
// the issuance instant. Unkeyed; uniqueness comes from the nanosecond clock.
func TokenID(workerID string, issuedAt time.Time) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s%d", workerID, issuedAt.UnixNano()))
	return hex.EncodeToString(sum[:])[:tokenIDLen]
}

// Equal compares two codes or signatures in constant time. Every signature
// and auth-code comparison in the system goes through here.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Signer) digest(msg string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
