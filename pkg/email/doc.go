// Package email sends the platform's transactional mail: payment receipts,
// plan change confirmations, refund notices. Everything goes through the
// EmailSender interface so the provider can be swapped without touching the
// billing code.
//
// Two implementations ship with the package. NewPostmarkClient delivers
// through Postmark with open and link tracking; NewDevSender writes each
// message to disk for local inspection.
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//		return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   sub.ContactEmail,
//		Subject:  "BankVoiceAI payment received",
//		BodyHTML: body,
//		Tag:      "payment-receipt",
//	})
//
// Params are validated before any provider call; errors.Is against
// ErrInvalidParams separates bad input from delivery failures
// (ErrFailedToSendEmail).
package email
