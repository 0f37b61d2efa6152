package audit

import "errors"

var (
	// ErrInvalidEvent indicates the event is missing required fields.
	ErrInvalidEvent = errors.New("invalid audit event")

	// ErrStorageUnavailable indicates the storage backend rejected the write.
	ErrStorageUnavailable = errors.New("audit storage unavailable")

	// ErrArchiveDenied indicates the archive bucket refused access. Unlike
	// ErrStorageUnavailable this does not clear up on retry; the credentials
	// or bucket policy need fixing.
	ErrArchiveDenied = errors.New("audit archive access denied")

	// ErrQueryFailed indicates the storage backend could not serve a query.
	ErrQueryFailed = errors.New("audit query failed")
)
