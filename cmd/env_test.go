//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/model-inputs-cli/internal/config"
	"github.com/sells-group/model-inputs-cli/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "cmd.db")},
		Data: config.DataConfig{
			Base:          dir,
			DepthDir:      "data/player/depth",
			EfficiencyDir: "data/market/efficiency",
			PlayersDir:    "data/player/players",
			TeamMap:       "data/teams_map.json",
			OutputDir:     filepath.Join(dir, "out"),
		},
		Ingest: config.IngestConfig{Concurrency: 1, UnmappedLimit: 20},
		Fetch:  config.FetchConfig{TimeoutSecs: 5, MaxRetries: 1, RatePerSec: 5},
	}
}

func TestStoreConfig(t *testing.T) {
	c := &config.Config{Store: config.StoreConfig{
		Driver: "postgres", DatabaseURL: "postgres://localhost/mi", MaxConns: 8, MinConns: 1,
	}}
	assert.Equal(t, store.Config{
		Driver:      "postgres",
		DatabaseURL: "postgres://localhost/mi",
		Pool:        store.PoolConfig{MaxConns: 8, MinConns: 1},
	}, storeConfig(c))
}

func TestInitStore_SQLite(t *testing.T) {
	c := testConfig(t)
	ctx := context.Background()

	st, err := initStore(ctx, c)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	require.NoError(t, st.Ping(ctx))
	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "oracle"

	_, err := initStore(context.Background(), c)
	require.Error(t, err)
}

func TestNewLoader_ReadsTeamMap(t *testing.T) {
	c := testConfig(t)
	p := filepath.Join(c.Data.Base, "data", "teams_map.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(`{"Georgia":"uga"}`), 0o644))

	teams, err := newLoader(c).LoadTeamMap(context.Background())
	require.NoError(t, err)
	id, ok := teams.Lookup("Georgia")
	assert.True(t, ok)
	assert.Equal(t, "uga", id)
}

func TestNewRunner_BadTuningFile(t *testing.T) {
	c := testConfig(t)
	c.Ingest.TuningFile = filepath.Join(t.TempDir(), "missing.yaml")

	st, err := initStore(context.Background(), c)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = newRunner(c, st, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tuning")
}

func TestNewRunner_Project(t *testing.T) {
	c := testConfig(t)
	base := c.Data.Base
	require.NoError(t, os.MkdirAll(filepath.Join(base, "data", "player", "players"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "teams_map.json"),
		[]byte(`{"Georgia":"uga"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "player", "players", "players_2025.csv"),
		[]byte("name,team,position,conference,rating\nCarson Beck,Georgia,QB,SEC,90\n"), 0o644))

	ctx := context.Background()
	st, err := initStore(ctx, c)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	r, err := newRunner(c, st, false)
	require.NoError(t, err)

	out, err := r.Project(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Carson Beck", out[0].Name)
}
