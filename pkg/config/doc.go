// Package config provides a type-safe, generic and cached way to load
// application configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11` to
// deliver a convenient API that:
//
//   - Loads values from a `.env` file in the current working directory when
//     one exists.
//   - Parses the environment into any Go struct using field tags.
//   - Caches each successfully loaded configuration type so it is only parsed
//     once for the lifetime of the process.
//   - Exposes MustLoad, which panics on failure, for configuration the service
//     cannot start without.
//
// Internally the package keeps a singleton cache that stores parsed struct
// copies keyed by their type name. Each key holds a sync.Once guaranteeing the
// parsing work executes at most once per configuration type even under
// concurrent access.
//
// # Usage
//
//	type ServerConfig struct {
//	    Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	import "github.com/bankvoiceai/platform/pkg/config"
//
//	var srv ServerConfig
//	if err := config.Load(&srv); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Sentinel errors (ErrParsingConfig, ErrConfigNotLoaded, ErrNilPointer) can be
// compared with errors.Is.
package config
