package store

import (
	"fmt"
	"strings"
)

// Driver names accepted by NewStore.
const (
	DriverBolt   = "bbolt"
	DriverJSON   = "json"
	DriverMemory = "memory"
)

// SupportedDrivers lists all available store drivers.
var SupportedDrivers = []string{DriverBolt, DriverJSON, DriverMemory}

// NewStore creates a Store for the given driver:
//   - "bbolt": BoltDB file at path (recommended for production)
//   - "json": JSON file at path (small deployments and tests)
//   - "memory": process-local only, path is ignored
func NewStore(driver, path string) (Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))

	if driver == DriverMemory {
		return NewMemoryStore(), nil
	}
	if path == "" {
		return nil, fmt.Errorf("store path is required for driver %s", driver)
	}

	switch driver {
	case DriverBolt:
		return NewBoltStore(path)
	case DriverJSON:
		return NewJSONStore(path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s (supported: %v)", driver, SupportedDrivers)
	}
}
