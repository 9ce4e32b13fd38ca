package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/insight/internal/domain"
)

type ListTenantsInput struct {
	FilterParams
}

type ListTenantsOutput struct {
	Body []domain.TenantRef
}

func RegisterTenantRoutes(api huma.API, svc AnalyticsService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List the tenant universe for a filter",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		tenants, err := svc.Tenants(ctx, input.filter())
		if err != nil {
			return nil, toHTTPError(err, "failed to list tenants")
		}

		return &ListTenantsOutput{Body: tenants}, nil
	})
}
