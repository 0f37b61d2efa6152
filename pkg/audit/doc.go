// Package audit records an immutable trail of platform actions: payment
// verifications, subscription changes, capability toggles, operator access.
// Events carry the acting party, the touched resource, the outcome, and a
// SHA-256 integrity checksum. Metadata passes through a PII filter before
// persistence, so account numbers, caller identifiers, and secrets never
// reach storage in the clear.
//
// The write path is Logger -> Storage. Four storages ship with the package:
//
//   - MemoryStorage: tests and single-node development
//   - PostgresStorage: the hot queryable store behind the tenant audit log
//   - OpenSearchStorage: full-criteria search over long retention windows
//   - S3Archiver: write-only NDJSON batches for retention policies
//
// AsyncWriter batches writes in front of any of them, and Fanout duplicates
// events across several.
//
// # Usage
//
//	storage := audit.NewPostgresStorage(pool)
//	writer := audit.NewAsyncWriter(audit.Fanout(storage, archiver), audit.AsyncOptions{})
//	defer writer.Close(ctx)
//
//	logger := audit.NewLogger(writer,
//		audit.WithExtractors(
//			audit.TenantExtractor(tenant.IDFromContext),
//			audit.RequestIDExtractor(requestid.FromContext),
//			audit.ClientIPExtractor(clientip.FromContext),
//		),
//	)
//
//	err := logger.Log(ctx, "payment.verified",
//		audit.WithResource("payment", txID),
//		audit.WithMetadata("plan", "professional"),
//	)
//
// Failed actions go through LogError, which sets ResultFailure and the error
// text. Authorization rejections override the result:
//
//	logger.LogError(ctx, "capability.toggle", err, audit.WithResult(audit.ResultDenied))
//
// # Reading
//
// PostgresStorage and OpenSearchStorage implement Reader. Queries are
// criteria-based, newest first:
//
//	events, err := storage.Query(ctx, audit.Criteria{
//		TenantID: "acme-bank",
//		Action:   "payment.verified",
//		Since:    time.Now().AddDate(0, -1, 0),
//	})
//
// VerifyChecksum detects events modified after the fact.
package audit
