package analytics_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/window"
)

// ---------------------------------------------------------------------------
// Fixed windows: current 1–7 March 2024, previous 23–29 February 2024 (UTC).
// ---------------------------------------------------------------------------

func marchWeek() window.Resolved {
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	return window.NewResolver(time.UTC, nil).Resolve(&window.Input{From: &from, To: &to})
}

func users(lastLogins ...string) []domain.UserRecord {
	out := make([]domain.UserRecord, 0, len(lastLogins))
	for i, ll := range lastLogins {
		out = append(out, domain.UserRecord{ID: int64(i + 1), LastLogin: ll})
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Mock sources
// ---------------------------------------------------------------------------

type mockUserSource struct {
	calls atomic.Int32
	fn    func(ctx context.Context, tenantID int64) ([]domain.UserRecord, error)
}

func (m *mockUserSource) ListUsers(ctx context.Context, tenantID int64) ([]domain.UserRecord, error) {
	m.calls.Add(1)
	return m.fn(ctx, tenantID)
}

type mockModuleSource struct {
	calls atomic.Int32
	fn    func(ctx context.Context, tenantID int64) ([]domain.ModuleRecord, error)
}

func (m *mockModuleSource) ListTenantModules(ctx context.Context, tenantID int64) ([]domain.ModuleRecord, error) {
	m.calls.Add(1)
	return m.fn(ctx, tenantID)
}

type mockDirectory struct {
	calls atomic.Int32
	fn    func(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error)
}

func (m *mockDirectory) List(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error) {
	m.calls.Add(1)
	return m.fn(ctx, filter)
}

// ---------------------------------------------------------------------------
// In-memory cache with a JSON round trip, like the Redis cache.
// ---------------------------------------------------------------------------

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	sets    atomic.Int32
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	c.mu.Lock()
	raw, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
	c.sets.Add(1)
	return nil
}
