package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/model-inputs-cli/internal/config"
	"github.com/sells-group/model-inputs-cli/internal/fetcher"
	"github.com/sells-group/model-inputs-cli/internal/pipeline"
	"github.com/sells-group/model-inputs-cli/internal/source"
	"github.com/sells-group/model-inputs-cli/internal/store"
	"github.com/sells-group/model-inputs-cli/internal/tuning"
)

// initStore opens the configured store and applies its schema.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, storeConfig(c))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func storeConfig(c *config.Config) store.Config {
	return store.Config{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		Pool: store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		},
	}
}

// newLoader builds the extract loader over the configured data base.
func newLoader(c *config.Config) *source.Loader {
	opts := source.Options{
		HTTP: fetcher.HTTPOptions{
			UserAgent:  c.Fetch.UserAgent,
			Timeout:    c.Fetch.Timeout(),
			MaxRetries: c.Fetch.MaxRetries,
			RatePerSec: c.Fetch.RatePerSec,
		},
		FTP: fetcher.FTPOptions{Timeout: c.Fetch.Timeout()},
	}
	layout := source.Layout{
		DepthDir:      c.Data.DepthDir,
		EfficiencyDir: c.Data.EfficiencyDir,
		PlayersDir:    c.Data.PlayersDir,
		TeamMap:       c.Data.TeamMap,
	}
	return source.NewLoader(source.New(c.Data.Base, opts), layout)
}

// newRunner wires a pipeline runner to st. snapshots overrides the
// configured ingest.snapshots setting.
func newRunner(c *config.Config, st store.Store, snapshots bool) (*pipeline.Runner, error) {
	t, err := tuning.Load(c.Ingest.TuningFile)
	if err != nil {
		return nil, err
	}
	return pipeline.New(newLoader(c), st, t, pipeline.Options{
		Concurrency:   c.Ingest.Concurrency,
		UnmappedLimit: c.Ingest.UnmappedLimit,
		Snapshots:     snapshots,
		OutputDir:     c.Data.OutputDir,
	})
}
