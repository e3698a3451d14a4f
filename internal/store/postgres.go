package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/model-inputs-cli/internal/db"
	"github.com/sells-group/model-inputs-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlGetInputs = `SELECT season, COALESCE(depth_chart_json, ''), COALESCE(usage_priors_json, ''),
	COALESCE(team_efficiency_json, ''), COALESCE(pace_estimates_json, ''), COALESCE(opponent_grades_by_pos, ''),
	created_at, updated_at FROM model_inputs WHERE season = $1`

	// Opponent grades keep an existing value; every other field keeps the
	// stored value only when the patch leaves it NULL.
	sqlUpsertInputs = `INSERT INTO model_inputs (season, depth_chart_json, usage_priors_json,
	team_efficiency_json, pace_estimates_json, opponent_grades_by_pos, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (season) DO UPDATE SET
	depth_chart_json = COALESCE(EXCLUDED.depth_chart_json, model_inputs.depth_chart_json),
	usage_priors_json = COALESCE(EXCLUDED.usage_priors_json, model_inputs.usage_priors_json),
	team_efficiency_json = COALESCE(EXCLUDED.team_efficiency_json, model_inputs.team_efficiency_json),
	pace_estimates_json = COALESCE(EXCLUDED.pace_estimates_json, model_inputs.pace_estimates_json),
	opponent_grades_by_pos = COALESCE(model_inputs.opponent_grades_by_pos, EXCLUDED.opponent_grades_by_pos),
	updated_at = EXCLUDED.updated_at`

	sqlDeleteEntries = `DELETE FROM depth_chart_entries WHERE season = $1`

	sqlInsertRun   = `INSERT INTO ingest_runs (id, season, stage, status, started_at) VALUES ($1, $2, $3, $4, $5)`
	sqlCompleteRun = `UPDATE ingest_runs SET status = $1, completed_at = $2, summary = $3 WHERE id = $4`
	sqlFailRun     = `UPDATE ingest_runs SET status = $1, completed_at = $2, error = $3 WHERE id = $4`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"get_model_inputs":    sqlGetInputs,
	"upsert_model_inputs": sqlUpsertInputs,
	"delete_depth":        sqlDeleteEntries,
	"insert_run":          sqlInsertRun,
	"complete_run":        sqlCompleteRun,
	"fail_run":            sqlFailRun,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return migratePostgres(ctx, s.pool)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetModelInputs(ctx context.Context, season int) (*model.ModelInputs, error) {
	var m model.ModelInputs
	err := s.pool.QueryRow(ctx, sqlGetInputs, season).Scan(
		&m.Season, &m.DepthChartJSON, &m.UsagePriorsJSON,
		&m.TeamEfficiencyJSON, &m.PaceEstimatesJSON, &m.OpponentGradesJSON,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: model inputs for season %d", season)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get model inputs %d", season)
	}
	return &m, nil
}

func (s *PostgresStore) UpsertModelInputs(ctx context.Context, season int, patch model.ModelInputsPatch) error {
	return upsertInputsPostgres(ctx, s.pool, season, patch)
}

func upsertInputsPostgres(ctx context.Context, conn db.Execer, season int, patch model.ModelInputsPatch) error {
	_, err := conn.Exec(ctx, sqlUpsertInputs,
		season, patch.DepthChartJSON, patch.UsagePriorsJSON,
		patch.TeamEfficiencyJSON, patch.PaceEstimatesJSON, patch.OpponentGradesJSON,
		time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert model inputs %d", season)
}

// StoreDepth writes the depth document fields, deletes the season's entries
// and bulk-loads the new set in one transaction.
func (s *PostgresStore) StoreDepth(ctx context.Context, season int, patch model.ModelInputsPatch, entries []model.CanonicalDepthEntry) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin store depth")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := upsertInputsPostgres(ctx, tx, season, patch); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, sqlDeleteEntries, season); err != nil {
		return 0, eris.Wrapf(err, "postgres: delete depth entries %d", season)
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = depthEntryRow(season, e)
	}
	n, err := db.BulkUpsert(ctx, tx, db.UpsertConfig{
		Table:        "depth_chart_entries",
		Columns:      depthEntryColumns,
		ConflictKeys: []string{"season", "team_id", "position", "player_key"},
	}, rows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit store depth")
	}
	return n, nil
}

func (s *PostgresStore) StartRun(ctx context.Context, season int, stage model.IngestStage) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.New().String(),
		Season:    season,
		Stage:     stage,
		Status:    model.IngestRunning,
		StartedAt: time.Now().UTC(),
	}
	if _, err := s.pool.Exec(ctx, sqlInsertRun,
		run.ID, season, string(stage), string(run.Status), run.StartedAt,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: start run %s/%d", stage, season)
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary map[string]any) error {
	var summaryJSON []byte
	if summary != nil {
		var err error
		if summaryJSON, err = json.Marshal(summary); err != nil {
			return eris.Wrap(err, "postgres: marshal run summary")
		}
	}
	tag, err := s.pool.Exec(ctx, sqlCompleteRun,
		string(model.IngestComplete), time.Now().UTC(), summaryJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx, sqlFailRun,
		string(model.IngestFailed), time.Now().UTC(), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error) {
	query := `SELECT id, season, stage, status, started_at, completed_at, summary, COALESCE(error, '')
	FROM ingest_runs WHERE true`
	var args []any
	if filter.Season > 0 {
		args = append(args, filter.Season)
		query += fmt.Sprintf(` AND season = $%d`, len(args))
	}
	args = append(args, filter.limit())
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var stage, status string
		var summaryJSON []byte
		if err := rows.Scan(&r.ID, &r.Season, &stage, &status, &r.StartedAt, &r.CompletedAt, &summaryJSON, &r.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Stage = model.IngestStage(stage)
		r.Status = model.IngestStatus(status)
		if len(summaryJSON) > 0 {
			if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode summary for run %s", r.ID)
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
