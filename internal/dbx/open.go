package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Open opens a database handle and pings it with exponential backoff until
// it answers or attempts run out.
func Open(ctx context.Context, driver, dsn string, attempts uint64) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := WaitReady(ctx, db, attempts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function, such as a Redis ping, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// WaitReady pings p until it succeeds, the context ends or attempts are used up.
func WaitReady(ctx context.Context, p Pinger, attempts uint64) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(100*time.Millisecond))
	backoff = retry.WithCappedDuration(5*time.Second, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return nil
}
