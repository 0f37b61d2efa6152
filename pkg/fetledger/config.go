package fetledger

import "time"

type Config struct {
	BaseURL        string        `env:"FET_LEDGER_URL" envDefault:"https://rest-dorado.fetch.ai"` // BaseURL is the Cosmos LCD REST endpoint of the Fetch.ai network.
	Denom          string        `env:"FET_DENOM" envDefault:"atestfet"`                          // Denom is the chain denomination of the token ("atestfet" on testnet, "afet" on mainnet).
	RequestTimeout time.Duration `env:"FET_LEDGER_TIMEOUT" envDefault:"30s"`                      // RequestTimeout bounds a single LCD request.
	VerifyAttempts int           `env:"FET_LEDGER_VERIFY_ATTEMPTS" envDefault:"5"`                // VerifyAttempts is the number of ledger fetch attempts before a verification gives up.
}
