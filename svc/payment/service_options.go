package payment

import (
	"log/slog"
	"time"
)

// ServiceOption configures the payment service.
type ServiceOption func(*Service)

// WithClock overrides the time source. Useful in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for payment flow events.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNotifier sets the notifier used for receipts and webhook events.
func WithNotifier(n *Notifier) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithQRSize overrides the rendered QR code edge length in pixels.
func WithQRSize(px int) ServiceOption {
	return func(s *Service) {
		if px > 0 {
			s.qrSize = px
		}
	}
}
