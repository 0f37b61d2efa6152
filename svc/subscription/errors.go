package subscription

import "errors"

var (
	ErrNotFound      = errors.New("subscription not found")
	ErrAlreadyExists = errors.New("subscription already exists")

	ErrPlanNotFound        = errors.New("subscription plan not found")
	ErrInvalidCatalog      = errors.New("invalid plan catalog")
	ErrFailedToLoadCatalog = errors.New("failed to load plan catalog")

	ErrCapabilityNotInPlan = errors.New("capability not included in plan")
	ErrUnknownCapability   = errors.New("unknown capability")

	ErrInvalidTenantID       = errors.New("tenant id must be a lowercase slug")
	ErrInvalidComplianceMode = errors.New("compliance mode must be strict or assistive")
	ErrInvalidWebhookURL     = errors.New("webhook URL must use https scheme")
	ErrInvalidStatus         = errors.New("operation not allowed in current subscription status")
	ErrCredentialNotFound    = errors.New("credential not found")

	ErrFailedToSave     = errors.New("failed to persist subscription")
	ErrStoreUnavailable = errors.New("subscription store unavailable")
)
