package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entriesCfg = UpsertConfig{
	Table:        "depth_chart_entries",
	Columns:      []string{"season", "team_id", "player_key", "pos_rank"},
	ConflictKeys: []string{"season", "team_id", "player_key"},
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, entriesCfg, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "depth_chart_entries",
		ConflictKeys: []string{"season"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "depth_chart_entries",
		Columns: []string{"season", "team_id"},
	}, [][]any{{2025, "uga"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_OnlyKeyColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "depth_chart_entries",
		Columns:      []string{"season"},
		ConflictKeys: []string{"season"},
	}, [][]any{{2025}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns to update")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock := newMockPool(t)
	rows := [][]any{{2025, "uga", "carson-beck", 1}, {2025, "uga", "gunner-stockton", 2}}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_depth_chart_entries" \(LIKE "depth_chart_entries" INCLUDING DEFAULTS\) ON COMMIT DROP`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_depth_chart_entries"}, entriesCfg.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "depth_chart_entries" .* ON CONFLICT \("season", "team_id", "player_key"\) DO UPDATE SET "pos_rank" = EXCLUDED."pos_rank"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, entriesCfg, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyFails(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_depth_chart_entries"}, entriesCfg.Columns).
		WillReturnError(errors.New("copy broke"))
	mock.ExpectRollback()

	_, err := BulkUpsert(context.Background(), mock, entriesCfg, [][]any{{2025, "uga", "x", 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_BeginFails(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	_, err := BulkUpsert(context.Background(), mock, entriesCfg, [][]any{{2025, "uga", "x", 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestUpdateColumns(t *testing.T) {
	assert.Equal(t, []string{"pos_rank"}, entriesCfg.updateColumns())

	explicit := entriesCfg
	explicit.UpdateCols = []string{"team_id"}
	assert.Equal(t, []string{"team_id"}, explicit.updateColumns())
}

func TestUpsertSQL(t *testing.T) {
	got := upsertSQL("public.t", "_stage_public_t", []string{"a", "b"}, []string{"a"}, []string{"b"})
	assert.Equal(t,
		`INSERT INTO "public"."t" ("a", "b") SELECT "a", "b" FROM "_stage_public_t" ON CONFLICT ("a") DO UPDATE SET "b" = EXCLUDED."b"`,
		got)
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"depth_chart_entries", `"depth_chart_entries"`},
		{"public.model_inputs", `"public"."model_inputs"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"season", "team_id", "position"`, quoteAndJoin([]string{"season", "team_id", "position"}))
}
