// Package webhook delivers signed JSON events to tenant-configured HTTP
// endpoints.
//
// Deliveries retry transient failures with exponential backoff and stop
// early on responses that repeating cannot fix. Endpoints that fail
// persistently can be fenced off with a CircuitBreaker shared across Send
// calls. Payloads are optionally signed with HMAC-SHA256 so receivers can
// authenticate the sender and reject replays; Verify implements the
// receiving side of the same scheme.
//
// Usage:
//
//	sender := webhook.NewSender()
//	err := sender.Send(ctx, tenantURL, event,
//		webhook.WithSignature(secret),
//		webhook.WithHeader("X-BankVoiceAI-Event", "payment.confirmed"),
//	)
//
// Receivers recompute the digest from the raw body and the signature
// headers:
//
//	sig, err := webhook.SignatureFromHeader(r.Header)
//	if err == nil {
//		err = webhook.Verify(secret, body, sig, 5*time.Minute)
//	}
package webhook
