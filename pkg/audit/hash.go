package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Checksum returns the SHA-256 integrity digest of the event's identifying
// fields. Metadata is excluded: the PII filter rewrites it and map iteration
// carries no ordering guarantee.
func Checksum(event Event) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%d",
		event.ID,
		event.TenantID,
		event.Actor,
		event.SessionID,
		event.Action,
		event.Resource,
		event.ResourceID,
		event.Result,
		event.Error,
		event.CreatedAt.Unix(),
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether the event's stored checksum still matches
// its field values.
func VerifyChecksum(event Event) bool {
	return event.Checksum != "" && event.Checksum == Checksum(event)
}
