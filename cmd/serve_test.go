//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/source"
	"github.com/sells-group/model-inputs-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeProjector struct {
	out    []model.PlayerProjection
	err    error
	season int
}

func (f *fakeProjector) Project(_ context.Context, season int) ([]model.PlayerProjection, error) {
	f.season = season
	return f.out, f.err
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func strPtr(s string) *string { return &s }

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	h := newRouter(newTestStore(t), &fakeProjector{}, []string{"*"})

	rr := doGet(t, h, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Health_StoreDown(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Close())
	h := newRouter(st, &fakeProjector{}, []string{"*"})

	rr := doGet(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_Field(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpsertModelInputs(context.Background(), 2025, model.ModelInputsPatch{
		DepthChartJSON:     strPtr(`{"uga":{"QB":[{"player_name":"Carson Beck","pos_rank":1}]}}`),
		OpponentGradesJSON: strPtr(`{"uga":{"QB_grade":80}}`),
	}))
	h := newRouter(st, &fakeProjector{}, []string{"*"})

	rr := doGet(t, h, "/v1/seasons/2025/depth-chart")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, rr.Header().Get("Last-Modified"))
	assert.JSONEq(t, `{"uga":{"QB":[{"player_name":"Carson Beck","pos_rank":1}]}}`, rr.Body.String())

	rr = doGet(t, h, "/v1/seasons/2025/opponent-grades")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"uga":{"QB_grade":80}}`, rr.Body.String())
}

func TestRouter_Field_NotBuilt(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpsertModelInputs(context.Background(), 2025, model.ModelInputsPatch{
		DepthChartJSON: strPtr(`{}`),
	}))
	h := newRouter(st, &fakeProjector{}, []string{"*"})

	rr := doGet(t, h, "/v1/seasons/2025/team-efficiency")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "team-efficiency not built")
}

func TestRouter_Field_Errors(t *testing.T) {
	h := newRouter(newTestStore(t), &fakeProjector{}, []string{"*"})

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/seasons/2025/depth-chart", http.StatusNotFound},
		{"/v1/seasons/2025/bogus", http.StatusNotFound},
		{"/v1/seasons/abc/depth-chart", http.StatusBadRequest},
		{"/v1/seasons/0/usage-priors", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := doGet(t, h, tt.path)
			assert.Equal(t, tt.status, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRouter_Projections(t *testing.T) {
	p := &fakeProjector{out: []model.PlayerProjection{
		{Name: "QB One", Position: model.PositionQB, AdjustedPoints: 300},
		{Name: "WR One", Position: model.PositionWR, AdjustedPoints: 200},
		{Name: "QB Two", Position: model.PositionQB, AdjustedPoints: 100},
	}}
	h := newRouter(newTestStore(t), p, []string{"*"})

	rr := doGet(t, h, "/v1/seasons/2025/projections?position=qb&limit=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2025, p.season)

	var got []model.PlayerProjection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "QB One", got[0].Name)

	rr = doGet(t, h, "/v1/seasons/2025/projections")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 3)
}

func TestRouter_Projections_Empty(t *testing.T) {
	h := newRouter(newTestStore(t), &fakeProjector{}, []string{"*"})

	rr := doGet(t, h, "/v1/seasons/2025/projections")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestRouter_Projections_Errors(t *testing.T) {
	st := newTestStore(t)

	missing := &fakeProjector{err: eris.Wrap(source.ErrNotFound, "source: no players extract")}
	rr := doGet(t, newRouter(st, missing, []string{"*"}), "/v1/seasons/2025/projections")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	broken := &fakeProjector{err: eris.New("boom")}
	rr = doGet(t, newRouter(st, broken, []string{"*"}), "/v1/seasons/2025/projections")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")

	rr = doGet(t, newRouter(st, &fakeProjector{}, []string{"*"}), "/v1/seasons/2025/projections?limit=-2")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_CORS(t *testing.T) {
	h := newRouter(newTestStore(t), &fakeProjector{}, []string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newRouter(newTestStore(t), &fakeProjector{}, []string{"*"})

	req := httptest.NewRequest(http.MethodPost, "/v1/seasons/2025/depth-chart", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
