package analytics

import (
	"cmp"
	"slices"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/window"
)

type adoptionBucket struct {
	entry    domain.ModuleAdoptionEntry
	active   map[int64]struct{}
	inactive map[int64]struct{}
}

// BuildAdoption groups module activation records by module and counts the
// tenants whose activation overlaps the current window. The adoption rate is
// relative to len(ids), not to the tenants that returned records.
//
// A tenant with both an active and a deactivated record for a module counts in
// both buckets. Within one bucket a tenant is counted once. Records without a
// module identity are ignored.
func BuildAdoption(ids []int64, modules map[int64][]domain.ModuleRecord, r window.Resolved) *domain.ModuleAdoption {
	buckets := make(map[string]*adoptionBucket)
	order := make([]string, 0)

	for _, tenantID := range ids {
		for _, rec := range modules[tenantID] {
			key := rec.Key()
			if key == "" {
				continue
			}
			b, ok := buckets[key]
			if !ok {
				b = &adoptionBucket{
					entry: domain.ModuleAdoptionEntry{
						ModuleID:          key,
						Code:              rec.Code,
						Name:              rec.Name,
						ActiveTenantIDs:   []int64{},
						InactiveTenantIDs: []int64{},
					},
					active:   make(map[int64]struct{}),
					inactive: make(map[int64]struct{}),
				}
				buckets[key] = b
				order = append(order, key)
			}
			if b.entry.Code == "" {
				b.entry.Code = rec.Code
			}
			if b.entry.Name == "" {
				b.entry.Name = rec.Name
			}

			switch rec.Status {
			case domain.ModuleStatusActive:
				if window.IntervalsOverlap(rec.StartDate, rec.EndDate, r.Current.Start, r.Current.End) {
					b.addActive(tenantID)
				}
			case domain.ModuleStatusInactive:
				end := rec.EndDate
				if end == "" {
					end = rec.StartDate
				}
				if window.IntervalsOverlap(rec.StartDate, end, r.Current.Start, r.Current.End) {
					b.addInactive(tenantID)
				}
			}
		}
	}

	total := len(ids)
	entries := make([]domain.ModuleAdoptionEntry, 0, len(order))
	for _, key := range order {
		e := buckets[key].entry
		e.ActiveTenants = len(e.ActiveTenantIDs)
		e.InactiveTenants = len(e.InactiveTenantIDs)
		e.AdoptionRate = adoptionRate(e.ActiveTenants, total)
		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(a, b domain.ModuleAdoptionEntry) int {
		if c := cmp.Compare(b.AdoptionRate, a.AdoptionRate); c != 0 {
			return c
		}
		return cmp.Compare(b.ActiveTenants, a.ActiveTenants)
	})

	return &domain.ModuleAdoption{
		Entries:      entries,
		TotalTenants: total,
	}
}

func (b *adoptionBucket) addActive(tenantID int64) {
	if _, seen := b.active[tenantID]; seen {
		return
	}
	b.active[tenantID] = struct{}{}
	b.entry.ActiveTenantIDs = append(b.entry.ActiveTenantIDs, tenantID)
}

func (b *adoptionBucket) addInactive(tenantID int64) {
	if _, seen := b.inactive[tenantID]; seen {
		return
	}
	b.inactive[tenantID] = struct{}{}
	b.entry.InactiveTenantIDs = append(b.entry.InactiveTenantIDs, tenantID)
}

func adoptionRate(active, total int) float64 {
	if total <= 0 {
		return 0
	}
	return min(float64(active)/float64(total)*100, 100)
}
