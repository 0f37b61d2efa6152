package tenant

import (
	"net/http"
	"strings"
)

// HeaderCredential is the dedicated credential header for clients whose HTTP
// stacks reserve Authorization for their own schemes.
const HeaderCredential = "X-BankVoiceAI-Key"

// queryCredential is the fallback for webhook-style integrations that cannot
// set headers at all.
const queryCredential = "api_key"

// CredentialFromRequest extracts the tenant credential from a request,
// checking the Authorization bearer token, the X-BankVoiceAI-Key header, and
// the api_key query parameter in that order. Returns empty when none carries
// a value; the gate turns that into ErrMissingCredential.
func CredentialFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if key := strings.TrimSpace(r.Header.Get(HeaderCredential)); key != "" {
		return key
	}

	return strings.TrimSpace(r.URL.Query().Get(queryCredential))
}
