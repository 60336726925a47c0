package config

// Config is the top-level ripview configuration, corresponding to .ripview.yml.
type Config struct {
	ServiceURL            string          `yaml:"service_url" koanf:"service_url"`
	RequestTimeoutSeconds int             `yaml:"request_timeout" koanf:"request_timeout"`
	Port                  int             `yaml:"port" koanf:"port"`
	AllowAllOrigins       bool            `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SearchDebounceMS      int             `yaml:"search_debounce" koanf:"search_debounce"`
	DefaultLayers         []string        `yaml:"default_layers" koanf:"default_layers"`
	RasterDir             string          `yaml:"raster_dir" koanf:"raster_dir"`
	Include               []string        `yaml:"include" koanf:"include"`
	Exclude               []string        `yaml:"exclude" koanf:"exclude"`
	Benchmark             BenchmarkConfig `yaml:"benchmark" koanf:"benchmark"`
	HistoryDB             string          `yaml:"history_db" koanf:"history_db"`
	Verbose               bool            `yaml:"verbose" koanf:"verbose"`
}

// BenchmarkConfig holds benchmark comparator settings.
type BenchmarkConfig struct {
	Iterations int    `yaml:"iterations" koanf:"iterations"`
	Reference  string `yaml:"reference" koanf:"reference"`
	AutoRun    bool   `yaml:"auto_run" koanf:"auto_run"`
}
