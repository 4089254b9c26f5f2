package scheduler

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"five field cron", "0 2 * * *", false},
		{"six field cron", "30 0 2 * * *", false},
		{"descriptor", "@daily", false},
		{"every descriptor", "@every 90s", false},
		{"interval minutes", "every 5m", false},
		{"interval words", "every 2 hours", false},
		{"interval days", "every 1d", false},
		{"empty", "", true},
		{"garbage", "sometimes", true},
		{"zero interval", "every 0m", true},
		{"sub-second interval", "every 0s", true},
		{"interval too long", "every 400d", true},
		{"unknown unit", "every 5w", true},
		{"interval without number", "every often", true},
		{"zoned descriptor", "CRON_TZ=UTC @daily", false},
		{"bare every descriptor", "@every", true},
		{"every descriptor without unit", "@every 5", true},
		{"unknown descriptor", "@sometimes", true},
		{"too few fields", "0 2 *", true},
		{"too many fields", "0 0 0 2 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err := ValidateSchedule(tt.expr); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 1, 10, 12, 34, 0, 0, time.Local)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"@hourly", time.Date(2024, 1, 10, 13, 0, 0, 0, time.Local)},
		{"0 2 * * *", time.Date(2024, 1, 11, 2, 0, 0, 0, time.Local)},
		{"every 10m", from.Add(10 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := NextRun(tt.expr, from)
			if err != nil {
				t.Fatalf("NextRun() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NextRun("bogus", from); err == nil {
		t.Error("NextRun() error = nil for invalid expression")
	}
}
