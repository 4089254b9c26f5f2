package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caevv/storewatch/internal/metrics"
	"github.com/caevv/storewatch/internal/uptime"
)

// Files locates the three CSV exports.
type Files struct {
	Status   string
	Hours    string
	Timezone string
}

// Column names of the CSV exports.
var (
	statusColumns   = []string{"store_id", "status", "timestamp_utc"}
	hoursColumns    = []string{"store_id", "dayOfWeek", "start_time_local", "end_time_local"}
	timezoneColumns = []string{"store_id", "timezone_str"}
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// ParseTimestamp parses an observation timestamp as UTC, truncated to the
// microsecond so a value reads back the same from the SQLite store.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

// LoadFiles reads the exports into a Dataset. The status file is required;
// missing hours or timezone files mean every store is open around the clock
// in the default zone. Malformed rows are skipped and logged.
func LoadFiles(files Files, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ds := NewDataset()

	readers := []struct {
		path     string
		required bool
		read     func(*Dataset, io.Reader) error
	}{
		{files.Status, true, ReadObservations},
		{files.Hours, false, ReadHours},
		{files.Timezone, false, ReadTimezones},
	}
	for _, r := range readers {
		f, err := os.Open(r.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && !r.required {
				logger.Info("optional source file not found", slog.String("path", r.path))
				continue
			}
			return nil, fmt.Errorf("failed to open %s: %w", r.path, err)
		}
		err = r.read(ds, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
		}
	}

	for _, err := range ds.Rejected {
		var verr *uptime.ValidationError
		record := "unknown"
		if errors.As(err, &verr) {
			record = verr.Record
		}
		metrics.RecordSkipped(record)
		logger.Debug("skipping source row", slog.String("error", err.Error()))
	}
	logger.Info("source loaded",
		slog.Int("observations", len(ds.Observations)),
		slog.Int("stores", ds.Stores()),
		slog.Int("rejected", len(ds.Rejected)),
	)
	return ds, nil
}

// ReadObservations appends the rows of a store_status export.
func ReadObservations(ds *Dataset, r io.Reader) error {
	return readRows(r, statusColumns, ds.rejecter(uptime.RecordObservation), func(line int, f []string) {
		ts, err := ParseTimestamp(f[2])
		if err != nil {
			ds.reject(uptime.RecordObservation, f[0], line, err)
			return
		}
		status, err := uptime.ParseStatus(f[1])
		if err != nil {
			ds.reject(uptime.RecordObservation, f[0], line, err)
			return
		}
		ds.AddObservation(uptime.Observation{StoreID: f[0], Timestamp: ts, Status: status})
	})
}

// ReadHours appends the rows of a menu_hours export.
func ReadHours(ds *Dataset, r io.Reader) error {
	return readRows(r, hoursColumns, ds.rejecter(uptime.RecordBusinessHours), func(line int, f []string) {
		day, err := strconv.Atoi(strings.TrimSpace(f[1]))
		if err != nil {
			ds.reject(uptime.RecordBusinessHours, f[0], line, fmt.Errorf("invalid day of week %q", f[1]))
			return
		}
		start, err := uptime.ParseClock(f[2])
		if err != nil {
			ds.reject(uptime.RecordBusinessHours, f[0], line, err)
			return
		}
		end, err := uptime.ParseClock(f[3])
		if err != nil {
			ds.reject(uptime.RecordBusinessHours, f[0], line, err)
			return
		}
		// Range checks happen in the engine so the entry is counted there.
		ds.AddHours(uptime.BusinessHours{StoreID: f[0], DayOfWeek: day, Start: start, End: end})
	})
}

// ReadTimezones records the rows of a timezones export.
func ReadTimezones(ds *Dataset, r io.Reader) error {
	return readRows(r, timezoneColumns, ds.rejecter(uptime.RecordTimezone), func(_ int, f []string) {
		ds.SetTimezone(f[0], strings.TrimSpace(f[1]))
	})
}

func (d *Dataset) reject(record, storeID string, line int, err error) {
	d.Rejected = append(d.Rejected, &uptime.ValidationError{
		Record:  record,
		StoreID: storeID,
		Reason:  fmt.Sprintf("line %d: %v", line, err),
	})
}

func (d *Dataset) rejecter(record string) func(line int, err error) {
	return func(line int, err error) { d.reject(record, "", line, err) }
}

// readRows maps the header onto the wanted columns and calls fn with the
// fields in that order. Rows without a store id are ignored. A row the CSV
// reader cannot parse goes to bad and reading carries on with the next one.
func readRows(r io.Reader, columns []string, bad func(line int, err error), fn func(line int, fields []string)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	index := make([]int, len(columns))
	for i, col := range columns {
		index[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), col) {
				index[i] = j
				break
			}
		}
		if index[i] < 0 {
			return fmt.Errorf("missing column %q", col)
		}
	}

	fields := make([]string, len(columns))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			bad(perr.StartLine, perr.Err)
			continue
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		// Missing trailing fields read as empty and fail parsing downstream.
		for i, j := range index {
			fields[i] = ""
			if j < len(rec) {
				fields[i] = rec[j]
			}
		}
		fields[0] = strings.TrimSpace(fields[0])
		if fields[0] == "" {
			continue
		}
		fn(line, fields)
	}
}
