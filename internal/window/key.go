package window

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

const keyTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// BuildKey derives a stable cache key from a resolved range. Equal instants
// produce equal keys regardless of the location they are expressed in.
func BuildKey(r Resolved) string {
	return strings.Join([]string{
		formatKeyTime(r.Current.Start),
		formatKeyTime(r.Current.End),
		formatKeyTime(r.Previous.Start),
		formatKeyTime(r.Previous.End),
	}, "|")
}

// BuildTenantKey scopes BuildKey to a named aggregation and a tenant-id set.
// The ids are treated as a set: order and duplicates do not change the key.
func BuildTenantKey(scope string, ids []int64, r Resolved) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	parts := make([]string, 0, len(sorted))
	for _, id := range sorted {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return scope + ":" + BuildKey(r) + ":" + strings.Join(parts, ",")
}

func formatKeyTime(t time.Time) string {
	return t.UTC().Format(keyTimeLayout)
}
