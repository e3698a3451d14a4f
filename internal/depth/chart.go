package depth

import (
	"sort"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// BuildChart groups resolved entries by team and position, sorted ascending
// by pos_rank. Equal ranks keep input order and ranks are never renumbered.
func BuildChart(entries []model.CanonicalDepthEntry) model.DepthChartPayload {
	chart := model.DepthChartPayload{}
	for _, e := range entries {
		byPos, ok := chart[e.TeamID]
		if !ok {
			byPos = make(map[model.Position][]model.DepthSlot)
			chart[e.TeamID] = byPos
		}
		byPos[e.Position] = append(byPos[e.Position], model.DepthSlot{
			PlayerName: e.PlayerName,
			PosRank:    e.PosRank,
			Status:     e.Status,
			Source:     e.Source,
			Notes:      e.Notes,
		})
	}

	for _, byPos := range chart {
		for _, slots := range byPos {
			sort.SliceStable(slots, func(i, j int) bool {
				return slots[i].PosRank < slots[j].PosRank
			})
		}
	}
	return chart
}
