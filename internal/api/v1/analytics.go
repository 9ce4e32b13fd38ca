package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/insight/internal/analytics"
	"github.com/gosuda/insight/internal/window"
)

type ResolveRangeInput struct {
	RangeParams
}

type ResolvedRange struct {
	window.Resolved
	Key string `json:"key" doc:"Stable key of the four boundaries"`
}

type ResolveRangeOutput struct {
	Body ResolvedRange
}

type LoginLeaderboardInput struct {
	RangeParams
	FilterParams
	Limit int `query:"limit" minimum:"0" maximum:"1000" default:"0" doc:"Keep only the top entries; 0 keeps all"`
}

type LoginLeaderboardOutput struct {
	Body *analytics.LoginReport
}

type ModuleAdoptionInput struct {
	RangeParams
	FilterParams
}

type ModuleAdoptionOutput struct {
	Body *analytics.AdoptionReport
}

func RegisterAnalyticsRoutes(api huma.API, svc AnalyticsService) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-range",
		Method:      http.MethodGet,
		Path:        "/analytics/range",
		Summary:     "Resolve the current and previous windows",
		Tags:        []string{"Analytics"},
	}, func(_ context.Context, input *ResolveRangeInput) (*ResolveRangeOutput, error) {
		in, err := input.input(svc.Location())
		if err != nil {
			return nil, toHTTPError(err, "invalid date range")
		}

		r, key := svc.Resolve(in)
		return &ResolveRangeOutput{Body: ResolvedRange{Resolved: r, Key: key}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login-leaderboard",
		Method:      http.MethodGet,
		Path:        "/analytics/logins",
		Summary:     "Rank tenants by user logins in the window",
		Tags:        []string{"Analytics"},
	}, func(ctx context.Context, input *LoginLeaderboardInput) (*LoginLeaderboardOutput, error) {
		in, err := input.input(svc.Location())
		if err != nil {
			return nil, toHTTPError(err, "invalid date range")
		}

		report, err := svc.LoginLeaderboard(ctx, analytics.Query{Range: in, Filter: input.filter()})
		if err != nil {
			return nil, toHTTPError(err, "failed to build login leaderboard")
		}

		// Reports may be shared between callers; truncate a copy.
		if input.Limit > 0 && len(report.Entries) > input.Limit {
			trimmed := *report
			trimmed.Entries = report.Entries[:input.Limit:input.Limit]
			report = &trimmed
		}

		return &LoginLeaderboardOutput{Body: report}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "module-adoption",
		Method:      http.MethodGet,
		Path:        "/analytics/modules",
		Summary:     "Module adoption across tenants in the window",
		Tags:        []string{"Analytics"},
	}, func(ctx context.Context, input *ModuleAdoptionInput) (*ModuleAdoptionOutput, error) {
		in, err := input.input(svc.Location())
		if err != nil {
			return nil, toHTTPError(err, "invalid date range")
		}

		report, err := svc.ModuleAdoption(ctx, analytics.Query{Range: in, Filter: input.filter()})
		if err != nil {
			return nil, toHTTPError(err, "failed to build module adoption")
		}

		return &ModuleAdoptionOutput{Body: report}, nil
	})
}
