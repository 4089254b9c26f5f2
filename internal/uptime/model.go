// Package uptime estimates how long a store was up or down during the
// trailing hour, day and week from sparse status observations, counting only
// time that falls inside the store's business hours.
package uptime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the reported state of a store at one observation.
type Status int

const (
	StatusUnknown Status = iota
	StatusUp
	StatusDown
)

// String returns the lowercase name used in logs and source files.
func (s Status) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseStatus accepts the spellings found in polling exports:
// active/inactive, up/down and 1/0 (case-insensitive).
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "up", "1":
		return StatusUp, nil
	case "inactive", "down", "0":
		return StatusDown, nil
	}
	return StatusUnknown, fmt.Errorf("unknown status %q", raw)
}

// Observation is one timestamped status reading for a store.
type Observation struct {
	StoreID   string    `json:"store_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}

// Validate reports whether the observation can take part in a computation.
func (o Observation) Validate() error {
	switch {
	case o.StoreID == "":
		return &ValidationError{Record: RecordObservation, Reason: "missing store id"}
	case o.Timestamp.IsZero():
		return &ValidationError{Record: RecordObservation, StoreID: o.StoreID, Reason: "missing timestamp"}
	case o.Status != StatusUp && o.Status != StatusDown:
		return &ValidationError{Record: RecordObservation, StoreID: o.StoreID, Reason: "unknown status"}
	}
	return nil
}

// BusinessHours is one open interval of a store's weekly schedule, in the
// store's local time. DayOfWeek runs from 0 (Monday) to 6 (Sunday); Start and
// End are offsets from local midnight and the interval is [Start, End).
type BusinessHours struct {
	StoreID   string        `json:"store_id"`
	DayOfWeek int           `json:"day_of_week"`
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
}

// Validate rejects entries that cannot describe a same-day interval.
func (b BusinessHours) Validate() error {
	switch {
	case b.DayOfWeek < 0 || b.DayOfWeek > 6:
		return &ValidationError{Record: RecordBusinessHours, StoreID: b.StoreID,
			Reason: fmt.Sprintf("day of week %d out of range 0-6", b.DayOfWeek)}
	case b.Start < 0 || b.End > 24*time.Hour:
		return &ValidationError{Record: RecordBusinessHours, StoreID: b.StoreID, Reason: "time of day out of range"}
	case b.Start >= b.End:
		return &ValidationError{Record: RecordBusinessHours, StoreID: b.StoreID,
			Reason: fmt.Sprintf("start %s is not before end %s", FormatClock(b.Start), FormatClock(b.End))}
	}
	return nil
}

// ParseClock parses a local time of day such as "09:00:00" or "17:30" into an
// offset from midnight. "24:00:00" is accepted as the end of the day.
func ParseClock(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}

	limits := []int{24, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var offset time.Duration
	for i, part := range parts {
		// Fractional seconds are truncated.
		if i == 2 {
			part, _, _ = strings.Cut(part, ".")
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", raw)
		}
		offset += time.Duration(n) * units[i]
	}
	if offset > 24*time.Hour {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	return offset, nil
}

// FormatClock renders an offset from midnight as HH:MM:SS.
func FormatClock(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// Tally is the up and down time accumulated inside business hours for one
// window.
type Tally struct {
	Up   time.Duration `json:"up"`
	Down time.Duration `json:"down"`
}

// Total is the business-hour time covered by the tally.
func (t Tally) Total() time.Duration {
	return t.Up + t.Down
}

// Row is the per-store result for the three trailing windows.
type Row struct {
	StoreID  string `json:"store_id"`
	LastHour Tally  `json:"last_hour"`
	LastDay  Tally  `json:"last_day"`
	LastWeek Tally  `json:"last_week"`
}

// Record kinds used in ValidationError.
const (
	RecordObservation   = "observation"
	RecordBusinessHours = "business_hours"
	RecordTimezone      = "timezone"
)

// ValidationError describes a single malformed input record. It never aborts a
// computation: the record is skipped and the error is reported alongside the
// result.
type ValidationError struct {
	Record  string
	StoreID string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.StoreID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Record, e.Reason)
	}
	return fmt.Sprintf("invalid %s for store %s: %s", e.Record, e.StoreID, e.Reason)
}
