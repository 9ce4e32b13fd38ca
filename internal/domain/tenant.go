package domain

import (
	"context"
	"slices"
)

type TenantType string

const (
	TenantTypeBUMDes        TenantType = "bumdes"
	TenantTypeBUMDesBersama TenantType = "bumdesma"
	TenantTypeKoperasi      TenantType = "koperasi"
)

// ValidTenantTypes is the canonical set of known tenant types.
var ValidTenantTypes = []TenantType{ //nolint:gochecknoglobals // canonical enum list
	TenantTypeBUMDes,
	TenantTypeBUMDesBersama,
	TenantTypeKoperasi,
}

// ValidTenantType returns true if t is a known tenant type.
func ValidTenantType(t TenantType) bool {
	return slices.Contains(ValidTenantTypes, t)
}

type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// ValidSubscriptionStatuses is the canonical set of known subscription statuses.
var ValidSubscriptionStatuses = []SubscriptionStatus{ //nolint:gochecknoglobals // canonical enum list
	SubscriptionActive,
	SubscriptionTrial,
	SubscriptionExpired,
}

// ValidSubscriptionStatus returns true if s is a known subscription status.
func ValidSubscriptionStatus(s SubscriptionStatus) bool {
	return slices.Contains(ValidSubscriptionStatuses, s)
}

// TenantRef is the slice of a tenant the aggregators need. Type is empty when
// the tenant has no type assigned.
type TenantRef struct {
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Type TenantType `json:"type,omitempty"`
}

// TenantFilter mirrors the dashboard filters. Zero values mean "any".
type TenantFilter struct {
	Type               TenantType
	SubscriptionStatus SubscriptionStatus
}

// TenantDirectory supplies the tenant universe an aggregation runs over.
type TenantDirectory interface {
	List(ctx context.Context, filter TenantFilter) ([]TenantRef, error)
}

// TenantIDs returns the ids of tenants in order.
func TenantIDs(tenants []TenantRef) []int64 {
	ids := make([]int64, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}
	return ids
}

// TenantLookup indexes tenants by id.
func TenantLookup(tenants []TenantRef) map[int64]TenantRef {
	lookup := make(map[int64]TenantRef, len(tenants))
	for _, t := range tenants {
		lookup[t.ID] = t
	}
	return lookup
}
