package config

import "time"

// Config represents the top-level configuration structure for storewatch.
type Config struct {
	Source   Source   `yaml:"source"`
	Defaults Defaults `yaml:"defaults"`
	Store    Store    `yaml:"store"`
	Server   Server   `yaml:"server"`
	Schedule string   `yaml:"schedule"` // optional cron expression for periodic reports
	Logging  Logging  `yaml:"logging"`
}

// Source locates the observation and business-hours data.
type Source struct {
	Driver       string `yaml:"driver"`        // "csv" or "sqlite"
	Path         string `yaml:"path"`          // csv: directory; sqlite: database file
	StatusFile   string `yaml:"status_file"`   // csv only
	HoursFile    string `yaml:"hours_file"`    // csv only
	TimezoneFile string `yaml:"timezone_file"` // csv only
}

// Defaults holds values applied to every report run.
type Defaults struct {
	Timezone   string        `yaml:"timezone"` // fallback zone for stores without one
	Workers    int           `yaml:"workers"`
	JobTimeout time.Duration `yaml:"job_timeout"` // 0 disables the timeout
}

// Store configuration for report job persistence.
type Store struct {
	Driver string `yaml:"driver"` // "bbolt", "json", or "memory"
	Path   string `yaml:"path"`   // file path for the store
}

// Server configures the HTTP API.
type Server struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"` // prefix for report URLs returned on poll
}

// Logging configures the process logger.
type Logging struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`
	Output string `yaml:"output"` // "stdout", "stderr" or a file path
}
