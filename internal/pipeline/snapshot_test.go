package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/model-inputs-cli/internal/efficiency"
	"github.com/sells-group/model-inputs-cli/internal/model"
)

func TestSnapshotWriter_Depth(t *testing.T) {
	root := t.TempDir()
	w := NewSnapshotWriter(root)
	chart := model.DepthChartPayload{"uga": {model.PositionQB: {{PlayerName: "Gunner Stockton", PosRank: 1}}}}

	require.NoError(t, w.Depth(2025, nil, chart, model.UsagePriorsPayload{}))

	data, err := os.ReadFile(filepath.Join(root, "processed", "depth", "depth_chart_2025.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"uga\""), "snapshot is indented")

	merged, err := os.ReadFile(filepath.Join(root, "raw", "depth", "merged_2025.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(merged))
}

func TestSnapshotWriter_OverwritesWithoutLeftovers(t *testing.T) {
	root := t.TempDir()
	w := NewSnapshotWriter(root)
	res := efficiency.Result{Teams: model.TeamEfficiencyPayload{}, Pace: model.PaceEstimatesPayload{}, Grades: model.OpponentGradesPayload{}}

	require.NoError(t, w.Efficiency(2025, res))
	require.NoError(t, w.Efficiency(2025, res))

	entries, err := os.ReadDir(filepath.Join(root, "processed", "efficiency"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"team_efficiency_2025.json",
		"pace_estimates_2025.json",
		"opponent_grades_2025.json",
	}, names)
}

func TestSnapshotWriter_UnwritableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	err := NewSnapshotWriter(root).Depth(2025, nil, model.DepthChartPayload{}, model.UsagePriorsPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot: mkdir")
}
