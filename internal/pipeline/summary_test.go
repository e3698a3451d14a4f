package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/model-inputs-cli/internal/efficiency"
)

func TestSummary_WriteText(t *testing.T) {
	s := &Summary{
		Season: 2025,
		Depth: &DepthSummary{
			Season: 2025, Teams: 2, Positions: 5, Players: 12, Conflicts: 3,
			Unmapped: []string{"A", "B"}, UnmappedTotal: 25,
		},
		Efficiency: &EfficiencySummary{
			Season: 2025, Teams: 2, SPPlusRows: 2,
			Leaders: efficiency.Leaders{
				TopOffense: []efficiency.TeamZ{{TeamID: "uga", Z: 1.25}},
			},
		},
	}

	var buf bytes.Buffer
	s.WriteText(&buf)
	out := buf.String()

	assert.Contains(t, out, "Depth charts 2025: teams=2 positions=5 players=12 conflicts=3")
	assert.Contains(t, out, "unmapped teams (25): A, B ... and 23 more")
	assert.Contains(t, out, "Top offense: uga (1.250)")
	assert.NotContains(t, out, "Top defense")
}

func TestSummary_Fields(t *testing.T) {
	d := &DepthSummary{Teams: 3, Players: 9, StoredEntries: 9}
	f := d.Fields()
	assert.Equal(t, 3, f["teams"])
	assert.Equal(t, int64(9), f["stored_entries"])

	e := &EfficiencySummary{Teams: 4, Dropped: 1}
	assert.Equal(t, 1, e.Fields()["dropped"])
}
