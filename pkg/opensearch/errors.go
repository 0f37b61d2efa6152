package opensearch

import "errors"

var (
	// ErrConnectionFailed wraps client construction failures, usually bad
	// addresses or TLS settings.
	ErrConnectionFailed = errors.New("opensearch: connection failed")

	// ErrHealthcheckFailed wraps failures to reach the cluster, from New at
	// startup and from Healthcheck probes afterwards.
	ErrHealthcheckFailed = errors.New("opensearch: healthcheck failed")
)
