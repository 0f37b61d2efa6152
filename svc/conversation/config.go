package conversation

import "time"

// Config holds conversation routing settings loaded from environment variables.
type Config struct {
	ASIOneAPIKey   string        `env:"ASI_ONE_API_KEY"`                                     // ASI:ONE credential; empty runs the keyword classifier only
	ASIOneAPIURL   string        `env:"ASI_ONE_API_URL" envDefault:"https://api.asi1.ai/v1"` // Chat-completions base URL for intent classification
	ASIOneModel    string        `env:"ASI_ONE_MODEL" envDefault:"asi1-mini"`                // Model used for intent classification
	BankName       string        `env:"BANK_NAME" envDefault:"your bank"`                    // Bank name spoken in greetings and disclosures
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"1h"`                         // Idle expiry for active sessions
	EndedRetention time.Duration `env:"SESSION_ENDED_RETENTION" envDefault:"24h"`            // How long ended sessions stay readable
}
