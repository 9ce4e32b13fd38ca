package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/metrics"
	"github.com/gosuda/insight/internal/window"
)

// Aggregation scopes, also used as cache key prefixes and metric labels.
const (
	ScopeLogins  = "logins"
	ScopeModules = "modules"
)

// Cache stores computed aggregates. Get reports whether key was found and
// decoded into dst.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Query selects the tenants and date range of an aggregation.
type Query struct {
	Range  *window.Input
	Filter domain.TenantFilter
}

// LoginReport is a login leaderboard together with the windows it covers.
type LoginReport struct {
	Range window.Resolved `json:"range"`
	Key   string          `json:"key"`
	domain.LoginLeaderboard
}

// AdoptionReport is a module adoption breakdown together with the windows it
// covers.
type AdoptionReport struct {
	Range window.Resolved `json:"range"`
	Key   string          `json:"key"`
	domain.ModuleAdoption
}

// Service memoizes aggregations on the resolved range and tenant set.
// Concurrent identical requests share one computation.
type Service struct {
	directory  domain.TenantDirectory
	aggregator *Aggregator
	resolver   *window.Resolver
	cache      Cache
	ttl        time.Duration
	timeout    time.Duration
	metrics    *metrics.Metrics
	flights    singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache stores results in c for ttl. Without a cache every request
// recomputes.
func WithCache(c Cache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithComputeTimeout bounds a shared computation. It keeps running after the
// request that started it goes away, so other waiters and the cache still get
// the result.
func WithComputeTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithServiceMetrics reports cache lookups and aggregation runs to m.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service.
func NewService(directory domain.TenantDirectory, aggregator *Aggregator, resolver *window.Resolver, opts ...ServiceOption) *Service {
	s := &Service{
		directory:  directory,
		aggregator: aggregator,
		resolver:   resolver,
		timeout:    2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the windows for in and their cache key.
func (s *Service) Resolve(in *window.Input) (window.Resolved, string) {
	r := s.resolver.Resolve(in)
	return r, window.BuildKey(r)
}

// Location is the zone calendar days are resolved in.
func (s *Service) Location() *time.Location {
	return s.resolver.Location()
}

// Tenants returns the tenant universe for filter.
func (s *Service) Tenants(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error) {
	tenants, err := s.directory.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("analytics.Service.Tenants: %w: %w", domain.ErrBackendUnavailable, err)
	}
	return tenants, nil
}

// LoginLeaderboard returns the login leaderboard for q.
func (s *Service) LoginLeaderboard(ctx context.Context, q Query) (*LoginReport, error) {
	r, tenants, err := s.prepare(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("analytics.Service.LoginLeaderboard: %w", err)
	}
	ids := domain.TenantIDs(tenants)
	key := window.BuildTenantKey(ScopeLogins, ids, r)

	board, err := memoize(ctx, s, ScopeLogins, key, len(ids), func(ctx context.Context) (*domain.LoginLeaderboard, error) {
		return s.aggregator.Logins(ctx, ids, domain.TenantLookup(tenants), r)
	})
	if err != nil {
		return nil, fmt.Errorf("analytics.Service.LoginLeaderboard: %w", err)
	}

	return &LoginReport{Range: r, Key: key, LoginLeaderboard: *board}, nil
}

// ModuleAdoption returns the module adoption breakdown for q.
func (s *Service) ModuleAdoption(ctx context.Context, q Query) (*AdoptionReport, error) {
	r, tenants, err := s.prepare(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("analytics.Service.ModuleAdoption: %w", err)
	}
	ids := domain.TenantIDs(tenants)
	key := window.BuildTenantKey(ScopeModules, ids, r)

	adoption, err := memoize(ctx, s, ScopeModules, key, len(ids), func(ctx context.Context) (*domain.ModuleAdoption, error) {
		return s.aggregator.Modules(ctx, ids, r)
	})
	if err != nil {
		return nil, fmt.Errorf("analytics.Service.ModuleAdoption: %w", err)
	}

	return &AdoptionReport{Range: r, Key: key, ModuleAdoption: *adoption}, nil
}

func (s *Service) prepare(ctx context.Context, q Query) (window.Resolved, []domain.TenantRef, error) {
	r := s.resolver.Resolve(q.Range)
	tenants, err := s.Tenants(ctx, q.Filter)
	if err != nil {
		return window.Resolved{}, nil, err
	}
	return r, tenants, nil
}

// memoize serves key from the cache or computes it once for all concurrent
// callers. A cache failure is logged and falls through to computation.
func memoize[T any](ctx context.Context, s *Service, scope, key string, tenants int, compute func(context.Context) (*T, error)) (*T, error) {
	if s.cache != nil {
		var cached T
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			s.metrics.IncrementCacheLookup(scope, metrics.CacheError)
			log.Warn().Err(err).Str("scope", scope).Msg("analytics: cache read failed")
		case found:
			s.metrics.IncrementCacheLookup(scope, metrics.CacheHit)
			return &cached, nil
		default:
			s.metrics.IncrementCacheLookup(scope, metrics.CacheMiss)
		}
	}

	ch := s.flights.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		runID := uuid.New()
		start := time.Now()

		value, err := compute(runCtx)
		s.metrics.ObserveAggregation(scope, tenants, start)
		if err != nil {
			log.Error().Err(err).Str("run_id", runID.String()).Str("scope", scope).Msg("analytics: aggregation failed")
			return nil, err
		}

		log.Info().
			Str("run_id", runID.String()).
			Str("scope", scope).
			Int("tenants", tenants).
			Dur("elapsed", time.Since(start)).
			Msg("analytics: aggregation complete")

		if s.cache != nil {
			if setErr := s.cache.Set(runCtx, key, value, s.ttl); setErr != nil {
				log.Warn().Err(setErr).Str("scope", scope).Msg("analytics: cache write failed")
			}
		}

		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		value, ok := res.Val.(*T)
		if !ok {
			return nil, errors.New("analytics: unexpected shared result type")
		}
		return value, nil
	}
}
