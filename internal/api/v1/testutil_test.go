package v1_test

import (
	"context"
	"time"

	"github.com/gosuda/insight/internal/analytics"
	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/window"
)

// ---------------------------------------------------------------------------
// Mock AnalyticsService
// ---------------------------------------------------------------------------

type mockAnalyticsService struct {
	loc                  *time.Location
	resolveFunc          func(in *window.Input) (window.Resolved, string)
	tenantsFunc          func(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error)
	loginLeaderboardFunc func(ctx context.Context, q analytics.Query) (*analytics.LoginReport, error)
	moduleAdoptionFunc   func(ctx context.Context, q analytics.Query) (*analytics.AdoptionReport, error)
}

func (m *mockAnalyticsService) Location() *time.Location {
	if m.loc == nil {
		return time.UTC
	}
	return m.loc
}

func (m *mockAnalyticsService) Resolve(in *window.Input) (window.Resolved, string) {
	return m.resolveFunc(in)
}

func (m *mockAnalyticsService) Tenants(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error) {
	return m.tenantsFunc(ctx, filter)
}

func (m *mockAnalyticsService) LoginLeaderboard(ctx context.Context, q analytics.Query) (*analytics.LoginReport, error) {
	return m.loginLeaderboardFunc(ctx, q)
}

func (m *mockAnalyticsService) ModuleAdoption(ctx context.Context, q analytics.Query) (*analytics.AdoptionReport, error) {
	return m.moduleAdoptionFunc(ctx, q)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func fixedResolved() window.Resolved {
	return window.Resolved{
		Current: window.Interval{
			Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 7, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
		Previous: window.Interval{
			Start: time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
	}
}

func sampleLoginReport() *analytics.LoginReport {
	r := fixedResolved()
	return &analytics.LoginReport{
		Range: r,
		Key:   "logins:" + window.BuildKey(r) + ":1,2,3",
		LoginLeaderboard: domain.LoginLeaderboard{
			Entries: []domain.LeaderboardEntry{
				{TenantID: 2, TenantName: "BUMDes Sukamaju", CurrentCount: 5, PreviousCount: 2, TrendPercent: 150, TrendDirection: domain.TrendUp},
				{TenantID: 1, TenantName: "BUMDes Mekar", CurrentCount: 3, PreviousCount: 3, TrendDirection: domain.TrendFlat},
				{TenantID: 3, TenantName: "Koperasi Tani", CurrentCount: 0, PreviousCount: 4, TrendPercent: -100, TrendDirection: domain.TrendDown},
			},
			TotalTenants: 3,
			TotalLogins:  8,
		},
	}
}
