package apikey

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// Prefix marks every credential issued by the platform.
	Prefix = "bvai_"

	// suffixLen is the number of hex characters kept from the HMAC digest.
	suffixLen = 40
)

// Generate derives a tenant credential from the signing secret and issuance time.
// The derivation is deterministic for a fixed (tenant, time, secret) triple so a
// key can be regenerated for comparison, but the tenant id cannot be recovered
// from the key.
func Generate(tenantID string, issuedAt time.Time, secret string) (string, error) {
	if tenantID == "" {
		return "", ErrEmptyTenantID
	}
	if secret == "" {
		return "", ErrEmptySecret
	}

	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%s:%d:%s", tenantID, issuedAt.Unix(), secret)
	digest := hex.EncodeToString(h.Sum(nil))

	return Prefix + digest[:suffixLen], nil
}

// Validate reports whether key is structurally a platform credential:
// the literal prefix followed by exactly 40 lowercase hex characters.
// It says nothing about whether the key was ever issued.
func Validate(key string) error {
	if !strings.HasPrefix(key, Prefix) {
		return ErrInvalidFormat
	}

	suffix := key[len(Prefix):]
	if len(suffix) != suffixLen {
		return ErrInvalidFormat
	}

	for _, r := range suffix {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ErrInvalidFormat
		}
	}

	return nil
}

// Mask returns a redacted form safe for logs and API responses,
// keeping the prefix and the first six suffix characters.
func Mask(key string) string {
	if Validate(key) != nil {
		return "invalid"
	}
	return key[:len(Prefix)+6] + "..."
}
