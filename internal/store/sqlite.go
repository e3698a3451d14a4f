package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection serializes writers and keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS model_inputs (
	season                 INTEGER PRIMARY KEY,
	depth_chart_json       TEXT,
	usage_priors_json      TEXT,
	team_efficiency_json   TEXT,
	pace_estimates_json    TEXT,
	opponent_grades_by_pos TEXT,
	created_at             DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS depth_chart_entries (
	season       INTEGER NOT NULL,
	team_id      TEXT NOT NULL,
	position     TEXT NOT NULL,
	player_key   TEXT NOT NULL,
	player_name  TEXT NOT NULL,
	pos_rank     INTEGER NOT NULL CHECK (pos_rank >= 1),
	status       TEXT NOT NULL,
	source       TEXT NOT NULL,
	source_mtime DATETIME,
	notes        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (season, team_id, position, player_key)
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	season       INTEGER NOT NULL,
	stage        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	summary      TEXT,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_depth_entries_team ON depth_chart_entries(season, team_id, position, pos_rank);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_season ON ingest_runs(season, started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetModelInputs(ctx context.Context, season int) (*model.ModelInputs, error) {
	var m model.ModelInputs
	err := s.db.QueryRowContext(ctx,
		`SELECT season, COALESCE(depth_chart_json, ''), COALESCE(usage_priors_json, ''),
		COALESCE(team_efficiency_json, ''), COALESCE(pace_estimates_json, ''),
		COALESCE(opponent_grades_by_pos, ''), created_at, updated_at
		FROM model_inputs WHERE season = ?`, season,
	).Scan(
		&m.Season, &m.DepthChartJSON, &m.UsagePriorsJSON,
		&m.TeamEfficiencyJSON, &m.PaceEstimatesJSON, &m.OpponentGradesJSON,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: model inputs for season %d", season)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get model inputs %d", season)
	}
	return &m, nil
}

// sqlExecer is satisfied by *sql.DB and *sql.Tx.
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const sqliteUpsertInputs = `INSERT INTO model_inputs (season, depth_chart_json, usage_priors_json,
	team_efficiency_json, pace_estimates_json, opponent_grades_by_pos, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (season) DO UPDATE SET
	depth_chart_json = COALESCE(excluded.depth_chart_json, model_inputs.depth_chart_json),
	usage_priors_json = COALESCE(excluded.usage_priors_json, model_inputs.usage_priors_json),
	team_efficiency_json = COALESCE(excluded.team_efficiency_json, model_inputs.team_efficiency_json),
	pace_estimates_json = COALESCE(excluded.pace_estimates_json, model_inputs.pace_estimates_json),
	opponent_grades_by_pos = COALESCE(model_inputs.opponent_grades_by_pos, excluded.opponent_grades_by_pos),
	updated_at = excluded.updated_at`

func (s *SQLiteStore) UpsertModelInputs(ctx context.Context, season int, patch model.ModelInputsPatch) error {
	return upsertInputsSQLite(ctx, s.db, season, patch)
}

func upsertInputsSQLite(ctx context.Context, ex sqlExecer, season int, patch model.ModelInputsPatch) error {
	now := time.Now().UTC()
	_, err := ex.ExecContext(ctx, sqliteUpsertInputs,
		season, nullString(patch.DepthChartJSON), nullString(patch.UsagePriorsJSON),
		nullString(patch.TeamEfficiencyJSON), nullString(patch.PaceEstimatesJSON),
		nullString(patch.OpponentGradesJSON), now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert model inputs %d", season)
}

// StoreDepth writes the depth document fields and replaces the season's
// depth entries in one transaction.
func (s *SQLiteStore) StoreDepth(ctx context.Context, season int, patch model.ModelInputsPatch, entries []model.CanonicalDepthEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin store depth")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertInputsSQLite(ctx, tx, season, patch); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM depth_chart_entries WHERE season = ?`, season); err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete depth entries %d", season)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO depth_chart_entries (season, team_id, position, player_key, player_name,
		pos_rank, status, source, source_mtime, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare depth entry insert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, depthEntryRow(season, e)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert depth entry %s", e.Key())
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit store depth")
	}
	return n, nil
}

func (s *SQLiteStore) StartRun(ctx context.Context, season int, stage model.IngestStage) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.New().String(),
		Season:    season,
		Stage:     stage,
		Status:    model.IngestRunning,
		StartedAt: time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, season, stage, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, season, string(stage), string(run.Status), run.StartedAt,
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: start run %s/%d", stage, season)
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary map[string]any) error {
	var summaryJSON sql.NullString
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal run summary")
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, completed_at = ?, summary = ? WHERE id = ?`,
		string(model.IngestComplete), time.Now().UTC(), summaryJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(model.IngestFailed), time.Now().UTC(), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error) {
	query := `SELECT id, season, stage, status, started_at, completed_at, summary, COALESCE(error, '')
	FROM ingest_runs WHERE 1=1`
	var args []any
	if filter.Season > 0 {
		query += ` AND season = ?`
		args = append(args, filter.Season)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var stage, status string
		var completed sql.NullTime
		var summary sql.NullString
		if err := rows.Scan(&r.ID, &r.Season, &stage, &status, &r.StartedAt, &completed, &summary, &r.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Stage = model.IngestStage(stage)
		r.Status = model.IngestStatus(status)
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		if summary.Valid && summary.String != "" {
			if err := json.Unmarshal([]byte(summary.String), &r.Summary); err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode summary for run %s", r.ID)
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}
