package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/source"
	"github.com/sells-group/model-inputs-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fixture is a temp content-store root plus an output dir.
type fixture struct {
	root string
	out  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{root: filepath.Join(dir, "content"), out: filepath.Join(dir, "out")}
	f.writeJSON(t, "data/teams_map.json", map[string]string{
		"Georgia": "uga",
		"Texas":   "tex",
		"Alabama": "ala",
	})
	return f
}

func (f *fixture) writeJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f.writeRaw(t, rel, string(data))
}

func (f *fixture) writeRaw(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) loader() *source.Loader {
	return source.NewLoader(source.NewDirStore(f.root), source.DefaultLayout())
}

// writeDepth writes a two-provider season where ourlads disagrees with
// team_sites on one player and one row names an unmapped team.
func (f *fixture) writeDepth(t *testing.T, season int) {
	t.Helper()
	f.writeJSON(t, depthFile("team_sites", season, "json"), []map[string]any{
		{"player_name": "Gunner Stockton", "team_name": "Georgia", "position": "QB", "pos_rank": 1},
		{"player_name": "Ryan Puglisi", "team_name": "Georgia", "position": "QB", "pos_rank": 2},
		{"player_name": "Nate Frazier", "team_name": "Georgia", "position": "RB", "pos_rank": 1},
	})
	f.writeRaw(t, depthFile("ourlads", season, "csv"),
		"name,school,pos,rank,status\n"+
			"Gunner Stockton,Georgia,QB,2,Q\n"+
			"Chauncey Bowens,Georgia,RB,2,\n"+
			"Someone,Nowhere State,WR,1,\n")
}

func depthFile(provider string, season int, ext string) string {
	return fmt.Sprintf("data/player/depth/%s_%d.%s", provider, season, ext)
}

func (f *fixture) writeEfficiency(t *testing.T, season int, offense map[string]float64) {
	t.Helper()
	rows := make([]map[string]any, 0, len(offense))
	for team, off := range offense {
		rows = append(rows, map[string]any{"team": team, "sp_off": off, "sp_def": 40 - off/2, "sp_st": 0.5})
	}
	f.writeJSON(t, fmt.Sprintf("data/market/efficiency/sp_plus_%d.json", season), rows)
}

func newSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetModelInputs(ctx context.Context, season int) (*model.ModelInputs, error) {
	args := m.Called(ctx, season)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ModelInputs), args.Error(1)
}

func (m *mockStore) UpsertModelInputs(ctx context.Context, season int, patch model.ModelInputsPatch) error {
	return m.Called(ctx, season, patch).Error(0)
}

func (m *mockStore) StoreDepth(ctx context.Context, season int, patch model.ModelInputsPatch, entries []model.CanonicalDepthEntry) (int64, error) {
	args := m.Called(ctx, season, patch, entries)
	return args.Get(0).(int64), args.Error(1)
}

// failingDepthStore is a real store whose depth write always fails.
type failingDepthStore struct {
	*store.SQLiteStore
	err error
}

func (s *failingDepthStore) StoreDepth(context.Context, int, model.ModelInputsPatch, []model.CanonicalDepthEntry) (int64, error) {
	return 0, s.err
}

func (m *mockStore) StartRun(ctx context.Context, season int, stage model.IngestStage) (*model.IngestRun, error) {
	args := m.Called(ctx, season, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IngestRun), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, summary map[string]any) error {
	return m.Called(ctx, runID, summary).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	return m.Called(ctx, runID, errMsg).Error(0)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.IngestRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.IngestRun), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Ping(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error                      { return m.Called().Error(0) }
