package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/window"
)

const dateLayout = "2006-01-02"

// statusClientClosedRequest is nginx's code for a request abandoned by the
// client.
const statusClientClosedRequest = 499

// RangeParams are the optional calendar-day bounds of a query.
type RangeParams struct {
	From string `query:"from" pattern:"^\\d{4}-\\d{2}-\\d{2}$" doc:"First day (YYYY-MM-DD). Alone it selects a single day."`
	To   string `query:"to" pattern:"^\\d{4}-\\d{2}-\\d{2}$" doc:"Last day (YYYY-MM-DD). Alone it selects the 30 days ending on it."`
}

// FilterParams narrow the tenant universe.
type FilterParams struct {
	Type               string `query:"type" enum:"bumdes,bumdesma,koperasi" doc:"Tenant type"`
	SubscriptionStatus string `query:"subscription_status" enum:"active,trial,expired" doc:"Latest subscription status"`
}

// input parses the bounds as calendar days in loc. Both empty yields nil,
// the default trailing window.
func (p RangeParams) input(loc *time.Location) (*window.Input, error) {
	if p.From == "" && p.To == "" {
		return nil, nil //nolint:nilnil // nil input selects the default window
	}

	in := &window.Input{}
	if p.From != "" {
		t, err := time.ParseInLocation(dateLayout, p.From, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: from: %w", domain.ErrInvalidRange, err)
		}
		in.From = &t
	}
	if p.To != "" {
		t, err := time.ParseInLocation(dateLayout, p.To, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: to: %w", domain.ErrInvalidRange, err)
		}
		in.To = &t
	}
	return in, nil
}

func (p FilterParams) filter() domain.TenantFilter {
	return domain.TenantFilter{
		Type:               domain.TenantType(p.Type),
		SubscriptionStatus: domain.SubscriptionStatus(p.SubscriptionStatus),
	}
}

// toHTTPError maps service errors onto problem responses.
func toHTTPError(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return huma.Error400BadRequest(msg, err)
	case errors.Is(err, domain.ErrBackendUnavailable):
		return huma.Error503ServiceUnavailable(msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(msg, err)
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads this response.
		log.Debug().Err(err).Msg(msg)
		return huma.NewError(statusClientClosedRequest, "client closed request")
	default:
		log.Error().Err(err).Msg(msg)
		return huma.Error500InternalServerError(msg, err)
	}
}
