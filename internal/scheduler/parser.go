package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Accepted report schedules:
//   - cron with 5 or 6 fields: "0 * * * *", "30 0 6 * * *"
//   - descriptors: "@hourly", "@daily", "@every 90s", optionally after
//     CRON_TZ=<zone>
//   - intervals: "every 15m", "every 2 hours"
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var (
	intervalPattern = regexp.MustCompile(`^(\d+)\s*([a-z]+)$`)

	intervalUnits = map[string]time.Duration{
		"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
		"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
		"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
		"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	}
)

const (
	minInterval = time.Second
	maxInterval = 365 * 24 * time.Hour
)

// ParseSchedule turns a report schedule expression into a cron.Schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty schedule expression")
	}

	if len(expr) > len("every ") && strings.EqualFold(expr[:len("every ")], "every ") {
		d, err := parseInterval(expr[len("every "):])
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", expr, err)
		}
		return cron.Every(d), nil
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// parseInterval reads "<n><unit>" or "<n> <unit>".
func parseInterval(s string) (time.Duration, error) {
	m := intervalPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, errors.New("want every <n><unit>, e.g. every 15m")
	}
	unit, ok := intervalUnits[m[2]]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q (use s, m, h or d)", m[2])
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}

	d := time.Duration(n) * unit
	switch {
	case d < minInterval:
		return 0, fmt.Errorf("interval must be at least %s", minInterval)
	case d > maxInterval:
		return 0, errors.New("interval cannot exceed a year")
	}
	return d, nil
}

// ValidateSchedule reports whether expr can be scheduled.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr)
	return err
}

// NextRun returns the first activation of expr after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from), nil
}
