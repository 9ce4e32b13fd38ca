package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/insight/internal/domain"
)

// maxTenants caps a single listing. The vendor serves a few thousand tenants.
const maxTenants = 10000

// querier is the subset of pgxpool.Pool used by TenantRepo.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ querier = (*pgxpool.Pool)(nil)

type TenantRepo struct {
	db querier
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{db: pool}
}

// List returns the tenants matching filter ordered by id. A subscription
// status filter matches tenants whose latest subscription has that status.
func (r *TenantRepo) List(ctx context.Context, filter domain.TenantFilter) ([]domain.TenantRef, error) {
	sql, args := buildTenantQuery(filter)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: %w", err)
	}
	defer rows.Close()

	tenants := make([]domain.TenantRef, 0)
	for rows.Next() {
		var (
			t       domain.TenantRef
			rawType *string
		)

		err = rows.Scan(&t.ID, &t.Name, &rawType)
		if err != nil {
			return nil, fmt.Errorf("tenantRepo.List: scan: %w", err)
		}
		if rawType != nil {
			t.Type = domain.TenantType(*rawType)
		}

		tenants = append(tenants, t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: rows: %w", err)
	}

	return tenants, nil
}

func buildTenantQuery(filter domain.TenantFilter) (string, []any) {
	var (
		sb    strings.Builder
		where []string
		args  []any
	)

	sb.WriteString(`SELECT t.id, t.name, t.type FROM tenants t`)

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, "t.type = $"+strconv.Itoa(len(args)))
	}
	if filter.SubscriptionStatus != "" {
		args = append(args, string(filter.SubscriptionStatus))
		where = append(where, `(
		SELECT s.status FROM tenant_subscriptions s
		WHERE s.tenant_id = t.id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT 1) = $`+strconv.Itoa(len(args)))
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY t.id LIMIT ")
	sb.WriteString(strconv.Itoa(maxTenants))

	return sb.String(), args
}
