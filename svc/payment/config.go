package payment

import "time"

// Config holds payment verification settings loaded from environment variables.
type Config struct {
	GatewayAddress string        `env:"FET_GATEWAY_ADDRESS,required"`                                  // Platform wallet that receives subscription payments
	Network        string        `env:"FET_NETWORK" envDefault:"dorado-1"`                             // Chain ID payments are verified against
	Denom          string        `env:"FET_DENOM" envDefault:"atestfet"`                               // Token denomination in smallest units
	ExplorerURL    string        `env:"FET_EXPLORER_URL" envDefault:"https://explore-dorado.fetch.ai"` // Block explorer base URL for transaction links
	MaxTxAge       time.Duration `env:"PAYMENT_MAX_TX_AGE" envDefault:"1h"`                            // Oldest transaction accepted during verification
}
