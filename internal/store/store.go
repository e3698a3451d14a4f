// Package store persists the per-season model inputs document, the
// canonical depth entries and the ingest run log.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// ErrNotFound is returned when a season document or run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing ingest runs.
type RunFilter struct {
	Season int `json:"season,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// limit returns the effective row limit.
func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}

// Store defines the persistence interface for the ingest pipeline.
type Store interface {
	// Model inputs document
	GetModelInputs(ctx context.Context, season int) (*model.ModelInputs, error)
	UpsertModelInputs(ctx context.Context, season int, patch model.ModelInputsPatch) error

	// StoreDepth applies the depth fields of patch and replaces the season's
	// canonical depth entries atomically. Nothing is written on failure.
	StoreDepth(ctx context.Context, season int, patch model.ModelInputsPatch, entries []model.CanonicalDepthEntry) (int64, error)

	// Ingest run log
	StartRun(ctx context.Context, season int, stage model.IngestStage) (*model.IngestRun, error)
	CompleteRun(ctx context.Context, runID string, summary map[string]any) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and sizes a store.
type Config struct {
	Driver      string
	DatabaseURL string
	Pool        PoolConfig
}

// Open creates the store named by cfg.Driver ("postgres" or "sqlite").
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql", "pgx":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires a database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	case "sqlite", "":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "model_inputs.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// depthEntryColumns is the column order shared by both drivers.
var depthEntryColumns = []string{
	"season", "team_id", "position", "player_key", "player_name",
	"pos_rank", "status", "source", "source_mtime", "notes",
}

func depthEntryRow(season int, e model.CanonicalDepthEntry) []any {
	var mtime any
	if !e.ModTime.IsZero() {
		mtime = e.ModTime.UTC()
	}
	return []any{
		season, e.TeamID, string(e.Position), e.PlayerKey, e.PlayerName,
		e.PosRank, string(e.Status), string(e.Source), mtime, e.Notes,
	}
}
