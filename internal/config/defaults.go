package config

import "time"

// DefaultServiceURL is where the extraction service listens when started
// with its own defaults.
const DefaultServiceURL = "http://localhost:8000"

// DefaultHistoryDB is where benchmark runs are recorded. An empty
// history_db disables recording.
const DefaultHistoryDB = ".ripview/history.db"

// DefaultExcludes are glob patterns skipped by batch runs.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"**/*.draft.pdf",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceURL:            DefaultServiceURL,
		RequestTimeoutSeconds: 60,
		Port:                  8420,
		SearchDebounceMS:      300,
		DefaultLayers:         []string{"words", "tables"},
		Include:               []string{"**/*.pdf"},
		Exclude:               DefaultExcludes,
		Benchmark: BenchmarkConfig{
			Iterations: 3,
			Reference:  "ripdoc",
		},
		HistoryDB: DefaultHistoryDB,
	}
}

// RequestTimeout returns the per-request timeout for the extraction service.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SearchDebounce returns the search debounce window.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}
