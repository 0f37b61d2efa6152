// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver. It wraps connection pooling, goose schema migrations, health
// checks and common error helpers so the durable stores (payment history,
// audit trail) can bootstrap a resilient database layer in a few lines.
//
// Three cooperating building blocks:
//
//   - Config: a declarative struct whose fields are populated from
//     environment variables via github.com/caarlos0/env. It controls
//     connection pool limits, health-check cadence and migration paths.
//
//   - Connect: opens a *pgxpool.Pool based on Config, retrying with
//     backoff until the database becomes available.
//
//   - Migrate: runs goose migrations against the same connection pool,
//     guaranteeing the schema is current before the service serves traffic.
//
// # Usage
//
//	import "github.com/bankvoiceai/platform/pkg/pg"
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//
// Error helpers (IsNotFoundError, IsDuplicateKeyError, ...) normalize pgx and
// SQLSTATE error checks across query sites.
package pg
