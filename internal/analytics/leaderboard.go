package analytics

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/window"
)

// BuildLeaderboard ranks tenants by logins in the current window. users holds
// the fetched user list per tenant; a tenant missing from it counts as having
// no users. Every id in ids gets an entry.
func BuildLeaderboard(ids []int64, users map[int64][]domain.UserRecord, lookup map[int64]domain.TenantRef, r window.Resolved) *domain.LoginLeaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(ids))
	totalLogins := 0

	for _, id := range ids {
		entry := newLeaderboardEntry(id, lookup)

		for _, u := range users[id] {
			t, ok := window.ParseInstant(u.LastLogin)
			if !ok {
				continue
			}

			switch {
			case window.IsWithinRange(u.LastLogin, r.Current.Start, r.Current.End):
				entry.CurrentCount++
			case window.IsWithinRange(u.LastLogin, r.Previous.Start, r.Previous.End):
				entry.PreviousCount++
			}

			if entry.LastLoginAt == nil || t.After(*entry.LastLoginAt) {
				entry.LastLoginAt = &t
			}
		}

		entry.TrendPercent, entry.TrendDirection = trend(entry.CurrentCount, entry.PreviousCount)
		totalLogins += entry.CurrentCount
		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(a, b domain.LeaderboardEntry) int {
		if c := cmp.Compare(b.CurrentCount, a.CurrentCount); c != 0 {
			return c
		}
		return cmp.Compare(lastLoginMillis(b), lastLoginMillis(a))
	})

	return &domain.LoginLeaderboard{
		Entries:      entries,
		TotalTenants: len(ids),
		TotalLogins:  totalLogins,
	}
}

func newLeaderboardEntry(id int64, lookup map[int64]domain.TenantRef) domain.LeaderboardEntry {
	entry := domain.LeaderboardEntry{
		TenantID:       id,
		TenantName:     "Tenant #" + strconv.FormatInt(id, 10),
		TrendDirection: domain.TrendFlat,
	}
	if ref, ok := lookup[id]; ok {
		if ref.Name != "" {
			entry.TenantName = ref.Name
		}
		entry.TenantType = ref.Type
	}
	return entry
}

// trend compares current against previous. Growth from zero is reported as
// 100%.
func trend(current, previous int) (float64, domain.TrendDirection) {
	direction := domain.TrendFlat
	switch {
	case current > previous:
		direction = domain.TrendUp
	case current < previous:
		direction = domain.TrendDown
	}

	if previous == 0 {
		if current > 0 {
			return 100, direction
		}
		return 0, direction
	}

	return float64(current-previous) / float64(previous) * 100, direction
}

// lastLoginMillis sorts tenants that never logged in as epoch 0.
func lastLoginMillis(e domain.LeaderboardEntry) int64 {
	if e.LastLoginAt == nil {
		return time.Unix(0, 0).UnixMilli()
	}
	return e.LastLoginAt.UnixMilli()
}
