package conversation

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session already ended")
	ErrEmptyInput      = errors.New("utterance is empty")
	ErrEmptySessionID  = errors.New("session id is required")

	ErrClassifierUnavailable = errors.New("intent classifier unavailable")
	ErrStoreUnavailable      = errors.New("session store unavailable")
	ErrFailedToSave          = errors.New("failed to persist session")
)
