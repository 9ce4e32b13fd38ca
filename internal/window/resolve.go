// Package window resolves dashboard date ranges into comparison windows and
// provides the interval math the aggregators bucket timestamps with.
package window

import "time"

// defaultWindowDays is the length of the window used when the caller picks no
// dates: today and the 29 days before it.
const defaultWindowDays = 30

// Input is a calendar range as picked in the dashboard. Either bound may be nil.
type Input struct {
	From *time.Time
	To   *time.Time
}

// Interval is a closed interval of instants.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t lies within the interval, bounds included.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Resolved holds the current window and the equally long window right
// before it.
type Resolved struct {
	Current  Interval `json:"current"`
	Previous Interval `json:"previous"`
}

// Resolver turns an Input into a Resolved pair. Day boundaries are computed in
// loc; now is only consulted when the input carries no dates.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver creates a Resolver. A nil loc means time.Local and a nil now
// means time.Now.
//
// Windows are whole calendar days in loc. When a window spans a daylight
// saving transition in loc, the previous window can be up to an hour longer
// or shorter than the current one; zones without DST, such as Asia/Jakarta,
// keep the two within a millisecond.
func NewResolver(loc *time.Location, now func() time.Time) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{loc: loc, now: now}
}

// Location returns the zone day boundaries are computed in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve computes the current and previous windows for in.
func (r *Resolver) Resolve(in *Input) Resolved {
	var from, to *time.Time
	if in != nil {
		from, to = in.From, in.To
	}

	var start, end time.Time
	if from == nil && to == nil {
		end = r.endOfDay(r.now())
		start = r.startOfDay(end.AddDate(0, 0, -(defaultWindowDays - 1)))
	} else {
		if to != nil {
			end = r.endOfDay(*to)
		} else {
			end = r.endOfDay(*from)
		}
		if from != nil {
			start = r.startOfDay(*from)
		} else {
			start = r.startOfDay(end.AddDate(0, 0, -(defaultWindowDays - 1)))
		}
	}

	// Only reachable with both bounds set, so the swapped input is valid.
	if start.After(end) {
		return r.Resolve(&Input{From: to, To: from})
	}

	previousEnd := r.endOfDay(start.Add(-time.Millisecond))
	previousStart := r.startOfDay(previousEnd.Add(-end.Sub(start)))

	return Resolved{
		Current:  Interval{Start: start, End: end},
		Previous: Interval{Start: previousStart, End: previousEnd},
	}
}

func (r *Resolver) startOfDay(t time.Time) time.Time {
	t = t.In(r.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

func (r *Resolver) endOfDay(t time.Time) time.Time {
	t = t.In(r.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), r.loc)
}
