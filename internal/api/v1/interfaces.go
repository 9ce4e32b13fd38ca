package v1

import (
	"context"
	"time"

	"github.com/gosuda/insight/internal/analytics"
	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/window"
)

// AnalyticsService abstracts the memoizing aggregation service for handler
// testing. *analytics.Service satisfies this interface.
type AnalyticsService interface {
	Location() *time.Location
	Resolve(in *window.Input) (window.Resolved, string)
	Tenants(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error)
	LoginLeaderboard(ctx context.Context, q analytics.Query) (*analytics.LoginReport, error)
	ModuleAdoption(ctx context.Context, q analytics.Query) (*analytics.AdoptionReport, error)
}

var _ AnalyticsService = (*analytics.Service)(nil)
