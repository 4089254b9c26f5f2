// Package report renders uptime rows as the CSV artifact handed out for a
// finished job.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caevv/storewatch/internal/uptime"
)

// Header is the fixed column order of every report.
var Header = []string{
	"store_id",
	"uptime_last_hour_minutes",
	"downtime_last_hour_minutes",
	"uptime_last_day_hours",
	"downtime_last_day_hours",
	"uptime_last_week_hours",
	"downtime_last_week_hours",
}

// ContentType is the media type of the artifact.
const ContentType = "text/csv; charset=utf-8"

var (
	nanosPerMinute = decimal.NewFromInt(int64(time.Minute))
	nanosPerHour   = decimal.NewFromInt(int64(time.Hour))
)

// Minutes converts d to whole minutes, rounding half up.
func Minutes(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(nanosPerMinute).Round(0)
}

// Hours converts d to hours with two decimals, rounding half up.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(nanosPerHour).Round(2)
}

// Fields formats one row in Header order.
func Fields(row uptime.Row) []string {
	return []string{
		row.StoreID,
		Minutes(row.LastHour.Up).StringFixed(0),
		Minutes(row.LastHour.Down).StringFixed(0),
		Hours(row.LastDay.Up).StringFixed(2),
		Hours(row.LastDay.Down).StringFixed(2),
		Hours(row.LastWeek.Up).StringFixed(2),
		Hours(row.LastWeek.Down).StringFixed(2),
	}
}

// Write renders rows, in the order given, below a header line. The output
// depends only on rows.
func Write(w io.Writer, rows []uptime.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(Fields(row)); err != nil {
			return fmt.Errorf("write row for store %s: %w", row.StoreID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrHeaderMismatch is returned by Read when the first line is not Header.
var ErrHeaderMismatch = errors.New("report header does not match")

// Read parses a report written by Write and returns its data lines.
func Read(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrHeaderMismatch
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i, header[i], col)
		}
	}

	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return lines, nil
}
