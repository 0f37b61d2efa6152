package email

// Config holds outbound email settings. All fields are optional at load
// time so development environments can run without a mail provider; the
// Postmark constructor enforces what it needs.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`  // From address on every message
	SupportEmail         string `env:"SUPPORT_EMAIL"` // Reply-To so answers reach a person
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
