package source

import (
	"context"
	"sort"

	"github.com/caevv/storewatch/internal/uptime"
)

// Dataset is an in-memory source. Observations keep their insertion order,
// which decides ties between readings with the same timestamp.
type Dataset struct {
	Observations []uptime.Observation
	Hours        map[string][]uptime.BusinessHours
	Timezones    map[string]string
	// Rejected holds the rows that could not be parsed.
	Rejected []error
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Hours:     make(map[string][]uptime.BusinessHours),
		Timezones: make(map[string]string),
	}
}

// AddObservation appends an observation.
func (d *Dataset) AddObservation(o uptime.Observation) {
	d.Observations = append(d.Observations, o)
}

// AddHours appends a business-hours entry.
func (d *Dataset) AddHours(h uptime.BusinessHours) {
	d.Hours[h.StoreID] = append(d.Hours[h.StoreID], h)
}

// SetTimezone records a store's zone. A later call wins.
func (d *Dataset) SetTimezone(storeID, zone string) {
	d.Timezones[storeID] = zone
}

func (d *Dataset) ListObservations(_ context.Context, storeID string) ([]uptime.Observation, error) {
	if storeID == "" {
		return append([]uptime.Observation(nil), d.Observations...), nil
	}
	var out []uptime.Observation
	for _, o := range d.Observations {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (d *Dataset) BusinessHours(_ context.Context, storeID string) ([]uptime.BusinessHours, error) {
	return append([]uptime.BusinessHours(nil), d.Hours[storeID]...), nil
}

func (d *Dataset) Timezone(_ context.Context, storeID string) (string, bool, error) {
	zone, ok := d.Timezones[storeID]
	return zone, ok, nil
}

// Stores returns the number of distinct stores with observations.
func (d *Dataset) Stores() int {
	seen := make(map[string]struct{})
	for _, o := range d.Observations {
		seen[o.StoreID] = struct{}{}
	}
	return len(seen)
}

func (d *Dataset) Close() error {
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
