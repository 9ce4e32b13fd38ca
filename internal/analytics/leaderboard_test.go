package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/insight/internal/analytics"
	"github.com/gosuda/insight/internal/domain"
)

func TestBuildLeaderboard_RanksByCurrentLogins(t *testing.T) {
	t.Parallel()

	lookup := map[int64]domain.TenantRef{
		1: {ID: 1, Name: "BUMDes Sumber Rejeki", Type: domain.TenantTypeBUMDes},
		2: {ID: 2, Name: "Koperasi Tani Makmur", Type: domain.TenantTypeKoperasi},
	}
	fetched := map[int64][]domain.UserRecord{
		1: users("2024-03-02T08:00:00Z", "2024-03-03T09:00:00Z", "2024-03-06T10:00:00Z", "2024-02-25T10:00:00Z"),
		2: users(),
	}

	got := analytics.BuildLeaderboard([]int64{2, 1}, fetched, lookup, marchWeek())

	require.Len(t, got.Entries, 2)
	assert.Equal(t, 2, got.TotalTenants)
	assert.Equal(t, 3, got.TotalLogins)

	first := got.Entries[0]
	assert.Equal(t, int64(1), first.TenantID)
	assert.Equal(t, "BUMDes Sumber Rejeki", first.TenantName)
	assert.Equal(t, domain.TenantTypeBUMDes, first.TenantType)
	assert.Equal(t, 3, first.CurrentCount)
	assert.Equal(t, 1, first.PreviousCount)
	assert.Equal(t, domain.TrendUp, first.TrendDirection)
	assert.InDelta(t, 200, first.TrendPercent, 1e-9)
	require.NotNil(t, first.LastLoginAt)
	assert.True(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC).Equal(*first.LastLoginAt))

	second := got.Entries[1]
	assert.Equal(t, int64(2), second.TenantID)
	assert.Equal(t, 0, second.CurrentCount)
	assert.Equal(t, 0, second.PreviousCount)
	assert.Equal(t, domain.TrendFlat, second.TrendDirection)
	assert.Zero(t, second.TrendPercent)
	assert.Nil(t, second.LastLoginAt)
}

func TestBuildLeaderboard_TimestampHandling(t *testing.T) {
	t.Parallel()

	fetched := map[int64][]domain.UserRecord{
		7: users(
			"",                     // never logged in
			"bukan tanggal",        // unparseable
			"2023-11-01T00:00:00Z", // before both windows
			"2024-04-01T00:00:00Z", // after both windows, still the latest login
			"2024-03-01T00:00:00Z", // first instant of current
			"2024-02-29T23:59:59.999Z",
		),
	}

	got := analytics.BuildLeaderboard([]int64{7}, fetched, nil, marchWeek())

	require.Len(t, got.Entries, 1)
	e := got.Entries[0]
	assert.Equal(t, 1, e.CurrentCount)
	assert.Equal(t, 1, e.PreviousCount)
	assert.Equal(t, domain.TrendFlat, e.TrendDirection)
	require.NotNil(t, e.LastLoginAt)
	assert.True(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Equal(*e.LastLoginAt))
	assert.Equal(t, "Tenant #7", e.TenantName, "unknown tenants get a placeholder name")
}

func TestBuildLeaderboard_TieBreaksOnLastLogin(t *testing.T) {
	t.Parallel()

	fetched := map[int64][]domain.UserRecord{
		1: users("2024-03-02T08:00:00Z"),
		2: users("2024-03-05T08:00:00Z"),
		3: users("2024-03-03T08:00:00Z", "2024-03-04T08:00:00Z"),
		4: users(),
		5: users("2023-01-01T00:00:00Z"),
	}

	got := analytics.BuildLeaderboard([]int64{4, 1, 2, 3, 5}, fetched, nil, marchWeek())

	order := make([]int64, 0, len(got.Entries))
	for _, e := range got.Entries {
		order = append(order, e.TenantID)
	}
	// 3 has two logins; 2 and 1 tie on one and sort by recency; 5 logged in
	// long ago and 4 never, so 4 sorts as epoch 0.
	assert.Equal(t, []int64{3, 2, 1, 5, 4}, order)
}

func TestBuildLeaderboard_Trend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		current       []string
		previous      []string
		wantPercent   float64
		wantDirection domain.TrendDirection
	}{
		{name: "no activity", wantPercent: 0, wantDirection: domain.TrendFlat},
		{name: "growth from zero", current: []string{"2024-03-02", "2024-03-03"}, wantPercent: 100, wantDirection: domain.TrendUp},
		{name: "drop to zero", previous: []string{"2024-02-24"}, wantPercent: -100, wantDirection: domain.TrendDown},
		{name: "decline", current: []string{"2024-03-02"}, previous: []string{"2024-02-24", "2024-02-25", "2024-02-26", "2024-02-27"}, wantPercent: -75, wantDirection: domain.TrendDown},
		{name: "steady", current: []string{"2024-03-02", "2024-03-03"}, previous: []string{"2024-02-24", "2024-02-25"}, wantPercent: 0, wantDirection: domain.TrendFlat},
		{name: "half again", current: []string{"2024-03-02", "2024-03-03", "2024-03-04"}, previous: []string{"2024-02-24", "2024-02-25"}, wantPercent: 50, wantDirection: domain.TrendUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fetched := map[int64][]domain.UserRecord{1: users(append(tt.current, tt.previous...)...)}
			got := analytics.BuildLeaderboard([]int64{1}, fetched, nil, marchWeek())

			require.Len(t, got.Entries, 1)
			assert.InDelta(t, tt.wantPercent, got.Entries[0].TrendPercent, 1e-9)
			assert.Equal(t, tt.wantDirection, got.Entries[0].TrendDirection)
		})
	}
}

func TestBuildLeaderboard_MissingTenantCountsAsEmpty(t *testing.T) {
	t.Parallel()

	got := analytics.BuildLeaderboard([]int64{1, 2}, map[int64][]domain.UserRecord{}, nil, marchWeek())

	require.Len(t, got.Entries, 2)
	assert.Zero(t, got.TotalLogins)
	for _, e := range got.Entries {
		assert.Equal(t, domain.TrendFlat, e.TrendDirection)
		assert.Nil(t, e.LastLoginAt)
	}
}
