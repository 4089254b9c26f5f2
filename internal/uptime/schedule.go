package uptime

import (
	"sort"
	"time"
	_ "time/tzdata" // store zones must resolve on hosts without a zoneinfo database
)

// Interval is a half-open span of absolute time [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the interval, or zero if it is empty.
func (iv Interval) Duration() time.Duration {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Clip returns the part of iv that lies inside [from, to).
func (iv Interval) Clip(from, to time.Time) Interval {
	if iv.Start.Before(from) {
		iv.Start = from
	}
	if iv.End.After(to) {
		iv.End = to
	}
	return iv
}

// Overlap returns how much of iv is shared with other.
func (iv Interval) Overlap(other Interval) time.Duration {
	return iv.Clip(other.Start, other.End).Duration()
}

// clockSpan is an open interval within one local day, as offsets from
// midnight.
type clockSpan struct {
	start time.Duration
	end   time.Duration
}

// Schedule is a store's weekly business hours indexed by day, with the
// intervals of each day sorted and merged.
type Schedule struct {
	days   [7][]clockSpan
	always bool
}

// AlwaysOpen is the schedule of a store without business-hours entries.
func AlwaysOpen() Schedule {
	return Schedule{always: true}
}

// NewSchedule builds a schedule from raw business-hours entries. Invalid
// entries are skipped and returned as errors. Overlapping entries for the same
// day are unioned. A store with no valid entries is open around the clock.
func NewSchedule(hours []BusinessHours) (Schedule, []error) {
	var (
		s    Schedule
		errs []error
		kept int
	)
	for _, h := range hours {
		if err := h.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		s.days[h.DayOfWeek] = append(s.days[h.DayOfWeek], clockSpan{start: h.Start, end: h.End})
		kept++
	}
	if kept == 0 {
		return AlwaysOpen(), errs
	}
	for d := range s.days {
		s.days[d] = mergeSpans(s.days[d])
	}
	return s, errs
}

// IsAlwaysOpen reports whether the schedule applies no clipping.
func (s Schedule) IsAlwaysOpen() bool {
	return s.always
}

func mergeSpans(spans []clockSpan) []clockSpan {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// Open returns the absolute intervals inside [from, to) during which the store
// is open, interpreting the weekly schedule in loc. The result is sorted and
// non-overlapping.
func (s Schedule) Open(loc *time.Location, from, to time.Time) []Interval {
	if !to.After(from) {
		return nil
	}
	if s.always {
		return []Interval{{Start: from, End: to}}
	}
	if loc == nil {
		loc = time.UTC
	}

	first := from.In(loc)
	last := to.In(loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	stop := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)

	var open []Interval
	for ; !day.After(stop); day = day.AddDate(0, 0, 1) {
		for _, sp := range s.days[weekdayIndex(day.Weekday())] {
			iv := Interval{Start: onDay(day, sp.start, loc), End: onDay(day, sp.end, loc)}.Clip(from, to)
			if iv.Duration() > 0 {
				open = append(open, iv)
			}
		}
	}
	return mergeIntervals(open)
}

// weekdayIndex maps time.Weekday (Sunday = 0) to the schedule convention
// (Monday = 0).
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// onDay resolves a wall-clock offset on the given local date. Going through
// time.Date keeps the wall clock correct on DST transition days.
func onDay(day time.Time, offset time.Duration, loc *time.Location) time.Time {
	secs := int(offset / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), secs/3600, secs%3600/60, secs%60, 0, loc)
}

// mergeIntervals sorts and merges intervals. Adjacent local days can produce
// touching or overlapping spans around DST changes.
func mergeIntervals(ivs []Interval) []Interval {
	if len(ivs) < 2 {
		return ivs
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start.Before(ivs[j].Start) })
	merged := ivs[:1]
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
