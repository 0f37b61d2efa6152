// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package standardises structured logging across the platform services by
// exposing a single factory, New, that creates a *slog.Logger configured by a
// set of Option functions. These options allow you to:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//   - Register ContextExtractor callbacks that inject attributes pulled from a
//     context value (for example a request id) every time Handle is invoked.
//
// # Usage
//
//	import "github.com/bankvoiceai/platform/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithDevelopment("routing-api"),
//	        logger.WithContextValue("request_id", ctxKeyRequestID),
//	    )
//	    logger.SetAsDefault(log)
//
//	    log.InfoContext(ctx, "payment verified",
//	        logger.TenantID("firstnational"),
//	        logger.TxID(hash),
//	        logger.Duration(time.Since(start)),
//	    )
//	}
//
// Helper constructors such as TenantID, TxID, Intent and Error live in attr.go
// and keep attribute naming consistent across the codebase. Error and Errors
// produce attributes only when the supplied error is non-nil, so they can be
// passed unconditionally.
package logger
