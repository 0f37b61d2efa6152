package tenant

import "errors"

var (
	ErrMissingCredential    = errors.New("missing credential")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrSubscriptionInactive = errors.New("subscription inactive")
	ErrPlanUnknown          = errors.New("subscription plan not in catalog")

	ErrNoSubscriptionInContext = errors.New("no subscription in request context")
)
