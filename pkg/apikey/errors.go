package apikey

import "errors"

var (
	ErrEmptyTenantID = errors.New("tenant id is required")
	ErrEmptySecret   = errors.New("signing secret is required")
	ErrInvalidFormat = errors.New("invalid api key format")
)
