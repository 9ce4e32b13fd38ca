// Package fanout fetches one collection per tenant with bounded concurrency.
//
// Ids are processed in chunks of a fixed width. Every fetch in a chunk runs
// concurrently and the next chunk starts only after the whole chunk settles.
// A failing fetch never aborts the batch: its tenant simply contributes an
// empty collection.
package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultWidth is the number of tenants fetched concurrently.
const DefaultWidth = 5

// Fetch outcomes reported to an Observer.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Result is the settled fetch of one tenant. Items is nil when Err is set.
type Result[T any] struct {
	TenantID int64
	Items    []T
	Err      error
}

// Observer is notified once per tenant fetch.
type Observer interface {
	ObserveTenantFetch(outcome string, elapsed time.Duration)
}

type config struct {
	width    int
	observer Observer
	label    string
}

// Option configures Fetch.
type Option func(*config)

// WithWidth sets the chunk width. Values below 1 keep DefaultWidth.
func WithWidth(width int) Option {
	return func(c *config) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithObserver reports every tenant fetch to o.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// WithLabel names the collection in log lines, e.g. "users".
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// Fetch runs fetch for every id and returns one Result per id, in input order.
// The only error it returns is the context's, checked before each chunk.
func Fetch[T any](ctx context.Context, ids []int64, fetch func(context.Context, int64) ([]T, error), opts ...Option) ([]Result[T], error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cfg := config{width: DefaultWidth, label: "collection"}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Each goroutine writes only its own slot; the slice is read after Wait.
	results := make([]Result[T], len(ids))

	for offset := 0; offset < len(ids); offset += cfg.width {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fanout.Fetch: %w", err)
		}

		end := min(offset+cfg.width, len(ids))

		var g errgroup.Group
		for i := offset; i < end; i++ {
			g.Go(func() error {
				results[i] = fetchOne(ctx, ids[i], fetch, &cfg)
				return nil
			})
		}
		_ = g.Wait() // fetchOne settles every error into its Result
	}

	return results, nil
}

// Items indexes successful results by tenant id. Failed tenants map to nil.
func Items[T any](results []Result[T]) map[int64][]T {
	out := make(map[int64][]T, len(results))
	for _, r := range results {
		out[r.TenantID] = r.Items
	}
	return out
}

func fetchOne[T any](ctx context.Context, tenantID int64, fetch func(context.Context, int64) ([]T, error), cfg *config) (res Result[T]) {
	res.TenantID = tenantID
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res.Items = nil
			res.Err = fmt.Errorf("fanout.Fetch: tenant %d: panic: %v", tenantID, p)
		}

		if res.Err != nil {
			log.Warn().Err(res.Err).
				Int64("tenant_id", tenantID).
				Str("collection", cfg.label).
				Msg("fanout: tenant fetch failed, using empty collection")
		}

		if cfg.observer != nil {
			outcome := OutcomeOK
			if res.Err != nil {
				outcome = OutcomeError
			}
			cfg.observer.ObserveTenantFetch(outcome, time.Since(start))
		}
	}()

	items, err := fetch(ctx, tenantID)
	if err != nil {
		res.Err = err
		return res
	}
	res.Items = items
	return res
}
