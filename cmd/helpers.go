package cmd

import (
	"fmt"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/config"
	"github.com/ziadkadry99/ripview/internal/db"
	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/history"
	"github.com/ziadkadry99/ripview/internal/raster"
	"github.com/ziadkadry99/ripview/internal/viewer"
)

// loadConfig loads and validates the config, providing a user-friendly error.
// Flags given on the command line win over the file and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `ripview init` to create a config file", err)
	}
	if serviceURL != "" {
		cfg.ServiceURL = serviceURL
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openHistory opens the benchmark history database. It returns a nil store
// when history is disabled. The returned close func is always safe to call.
func openHistory(cfg *config.Config) (*history.Store, func(), error) {
	if cfg.HistoryDB == "" {
		return nil, func() {}, nil
	}
	database, err := db.Open(cfg.HistoryDB)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening history %s: %w", cfg.HistoryDB, err)
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

// newAppFromConfig builds a viewer backed by the configured extraction
// service. store may be nil.
func newAppFromConfig(cfg *config.Config, store *history.Store) (*viewer.App, error) {
	defaults, err := cfg.Layers()
	if err != nil {
		return nil, err
	}
	var src raster.Source
	if cfg.RasterDir != "" {
		src = raster.DirSource{Dir: cfg.RasterDir}
	}
	var rec viewer.Recorder
	if store != nil {
		rec = store
	}
	svc := extract.NewClient(cfg.ServiceURL, cfg.RequestTimeout())
	return viewer.New(svc, viewer.Options{
		History:        rec,
		DefaultLayers:  defaults,
		SearchDebounce: cfg.SearchDebounce(),
		Source:         src,
		Verbose:        cfg.Verbose,
		Benchmark: benchmark.Options{
			Reference:  cfg.Benchmark.Reference,
			Iterations: cfg.Benchmark.Iterations,
			AutoRun:    cfg.Benchmark.AutoRun,
		},
	})
}
