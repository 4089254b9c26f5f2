package uptime

import (
	"sort"
	"time"
)

// Trailing window lengths, measured back from the evaluation instant.
const (
	HourWindow = time.Hour
	DayWindow  = 24 * time.Hour
	WeekWindow = 7 * 24 * time.Hour
)

// Input is everything needed to evaluate one store.
type Input struct {
	StoreID      string
	Observations []Observation
	// Hours is the weekly schedule; no entries means open around the clock.
	Hours    []BusinessHours
	Location *time.Location
	Now      time.Time
}

// Result is the outcome of evaluating one store.
type Result struct {
	Row Row
	// Evaluated is false when the store has no usable observation at or
	// before Now; such a store has no defined status and is left out of
	// reports.
	Evaluated bool
	// Skipped holds the validation errors of records that were ignored.
	Skipped []error
}

// Evaluate computes uptime and downtime inside business hours for the hour,
// day and week ending at in.Now.
//
// Status is modelled as a step function: each observation's status holds
// until the next observation. The earliest known status is extrapolated back
// to the start of the week window and the latest one forward to Now. The last
// observation before the week window is kept as the state at its start.
func Evaluate(in Input) Result {
	res := Result{Row: Row{StoreID: in.StoreID}}

	obs, skipped := prepare(in.Observations)
	schedule, badHours := NewSchedule(in.Hours)
	res.Skipped = append(skipped, badHours...)

	weekStart := in.Now.Add(-WeekWindow)
	obs = clip(obs, weekStart, in.Now)
	if len(obs) == 0 {
		return res
	}
	res.Evaluated = true

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	segs := steps(obs, weekStart, in.Now)
	open := schedule.Open(loc, weekStart, in.Now)

	res.Row.LastHour = tally(segs, open, in.Now.Add(-HourWindow), in.Now)
	res.Row.LastDay = tally(segs, open, in.Now.Add(-DayWindow), in.Now)
	res.Row.LastWeek = tally(segs, open, weekStart, in.Now)
	return res
}

// prepare drops invalid observations and orders the rest by timestamp. When
// several observations share a timestamp only the last one supplied is kept.
func prepare(raw []Observation) ([]Observation, []error) {
	var errs []error
	obs := make([]Observation, 0, len(raw))
	for _, o := range raw {
		if err := o.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		obs = append(obs, o)
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Timestamp.Before(obs[j].Timestamp) })

	deduped := obs[:0]
	for i, o := range obs {
		if i+1 < len(obs) && obs[i+1].Timestamp.Equal(o.Timestamp) {
			continue
		}
		deduped = append(deduped, o)
	}
	return deduped, errs
}

// clip keeps the sorted observations inside (from, to] plus the latest one at
// or before from.
func clip(obs []Observation, from, to time.Time) []Observation {
	first := sort.Search(len(obs), func(i int) bool { return obs[i].Timestamp.After(from) })
	if first > 0 {
		first--
	}
	end := sort.Search(len(obs), func(i int) bool { return obs[i].Timestamp.After(to) })
	if first >= end {
		return nil
	}
	return obs[first:end]
}

type segment struct {
	Interval
	status Status
}

// steps turns sorted observations into constant-status segments covering
// [from, to).
func steps(obs []Observation, from, to time.Time) []segment {
	segs := make([]segment, 0, len(obs))
	for i, o := range obs {
		iv := Interval{Start: o.Timestamp, End: to}
		if i == 0 && iv.Start.After(from) {
			iv.Start = from
		}
		if i+1 < len(obs) {
			iv.End = obs[i+1].Timestamp
		}
		iv = iv.Clip(from, to)
		if iv.Duration() == 0 {
			continue
		}
		segs = append(segs, segment{Interval: iv, status: o.Status})
	}
	return segs
}

// tally sums the business-hour overlap of every segment inside [from, to).
func tally(segs []segment, open []Interval, from, to time.Time) Tally {
	var t Tally
	for _, seg := range segs {
		iv := seg.Clip(from, to)
		if iv.Duration() == 0 {
			continue
		}
		for _, o := range open {
			if !o.End.After(iv.Start) {
				continue
			}
			if !o.Start.Before(iv.End) {
				break
			}
			d := iv.Overlap(o)
			if seg.status == StatusUp {
				t.Up += d
			} else {
				t.Down += d
			}
		}
	}
	return t
}
