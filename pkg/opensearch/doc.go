// Package opensearch connects the service to an OpenSearch cluster.
//
// It wraps github.com/opensearch-project/opensearch-go/v2 with the same
// connect pattern as the pg and redis packages: a Config populated from
// environment variables, a New constructor that verifies the cluster is
// reachable before handing the client out, and a Healthcheck probe for
// readiness endpoints. The platform uses the client to index audit events
// for full-text search; see the audit package's OpenSearchStorage.
//
// # Usage
//
//	var cfg opensearch.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//
//	sink := audit.NewOpenSearchStorage(client, "audit-events")
//
// Connectivity failures surface as ErrConnectionFailed or
// ErrHealthcheckFailed; match them with errors.Is.
package opensearch
