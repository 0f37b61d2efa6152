// Package redis provides helpers for connecting to the Redis instance that
// backs the platform's keyed state: subscription records, credential index,
// rate-limit counters and conversation sessions.
//
// The package wraps the go-redis client and adds:
//
//   - A robust Connect which retries the connection using the supplied
//     configuration before giving up.
//   - A health-check helper to integrate Redis into liveness probes.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	import "github.com/bankvoiceai/platform/pkg/redis"
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // terminate: the platform cannot gate requests without its store
//	}
//	defer client.Close()
//
// Sentinel errors (ErrRedisNotReady and friends) wrap the underlying go-redis
// errors using errors.Join for comparison with errors.Is.
package redis
