// Package apikey derives and validates tenant credentials.
//
// A credential is the literal prefix "bvai_" followed by the first 40 hex
// characters of HMAC-SHA256(secret, "<tenant>:<unix_time>:<secret>"). The
// derivation is deterministic enough to regenerate for a known issuance time
// but not reversible, so keys can be stored and compared as opaque strings.
//
// # Usage
//
//	import "github.com/bankvoiceai/platform/pkg/apikey"
//
//	key, err := apikey.Generate("firstnational", time.Now(), secret)
//	if err != nil {
//	    return err
//	}
//
//	if err := apikey.Validate(presented); err != nil {
//	    // reject before touching the credential index
//	}
//
// Validate is format-only. Whether a key resolves to a live subscription is
// the tenant authenticator's concern.
package apikey
