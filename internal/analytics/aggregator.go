// Package analytics computes tenant login leaderboards and module adoption
// breakdowns from per-tenant collections fetched off the BUMDes backend.
package analytics

import (
	"context"
	"fmt"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/fanout"
	"github.com/gosuda/insight/internal/metrics"
	"github.com/gosuda/insight/internal/window"
)

// Aggregator fetches per-tenant collections with bounded concurrency and folds
// them into aggregates. It keeps no state between calls.
type Aggregator struct {
	users   domain.UserSource
	modules domain.ModuleSource
	width   int
	metrics *metrics.Metrics
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithFanoutWidth sets how many tenants are fetched concurrently.
func WithFanoutWidth(width int) AggregatorOption {
	return func(a *Aggregator) {
		a.width = width
	}
}

// WithMetrics reports fetches to m.
func WithMetrics(m *metrics.Metrics) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// NewAggregator creates an Aggregator reading from users and modules.
func NewAggregator(users domain.UserSource, modules domain.ModuleSource, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		users:   users,
		modules: modules,
		width:   fanout.DefaultWidth,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logins builds the login leaderboard for ids. lookup supplies names and
// types; ids missing from it are still ranked.
func (a *Aggregator) Logins(ctx context.Context, ids []int64, lookup map[int64]domain.TenantRef, r window.Resolved) (*domain.LoginLeaderboard, error) {
	if len(ids) == 0 {
		return &domain.LoginLeaderboard{Entries: []domain.LeaderboardEntry{}}, nil
	}

	results, err := fanout.Fetch(ctx, ids, a.users.ListUsers, a.fanoutOptions("users")...)
	if err != nil {
		return nil, fmt.Errorf("analytics.Aggregator.Logins: %w", err)
	}

	return BuildLeaderboard(ids, fanout.Items(results), lookup, r), nil
}

// Modules builds the module adoption breakdown for ids.
func (a *Aggregator) Modules(ctx context.Context, ids []int64, r window.Resolved) (*domain.ModuleAdoption, error) {
	if len(ids) == 0 {
		return &domain.ModuleAdoption{Entries: []domain.ModuleAdoptionEntry{}}, nil
	}

	results, err := fanout.Fetch(ctx, ids, a.modules.ListTenantModules, a.fanoutOptions("modules")...)
	if err != nil {
		return nil, fmt.Errorf("analytics.Aggregator.Modules: %w", err)
	}

	return BuildAdoption(ids, fanout.Items(results), r), nil
}

func (a *Aggregator) fanoutOptions(collection string) []fanout.Option {
	return []fanout.Option{
		fanout.WithWidth(a.width),
		fanout.WithLabel(collection),
		fanout.WithObserver(a.metrics.FetchObserver(collection)),
	}
}
