package projection

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/normalize"
)

// ProjectAll projects every player against the season depth chart, dedupes
// by name and position, orders by projected points and assigns ADP by rank
// in that list. teams may be nil, in which case no depth ranks resolve.
func (c *Calculator) ProjectAll(players []model.Player, chart model.DepthChartPayload, teams *normalize.TeamMap) []model.PlayerProjection {
	ranks := indexChart(chart)

	type slot struct {
		proj   model.PlayerProjection
		rating float64
	}
	order := make([]string, 0, len(players))
	best := make(map[string]slot, len(players))

	for _, p := range players {
		p.Position = model.Position(strings.ToUpper(strings.TrimSpace(string(p.Position))))
		key := normalize.PlayerKey(p.Name)
		if key == "" {
			continue
		}

		var teamID string
		if teams != nil {
			teamID, _ = teams.Lookup(p.Team)
		}
		rank := ranks[model.DepthKey{TeamID: teamID, Position: p.Position, PlayerKey: key}.String()]

		proj := c.Project(p, rank)
		proj.TeamID = teamID

		dedupe := key + "|" + string(p.Position)
		cur, seen := best[dedupe]
		if !seen {
			order = append(order, dedupe)
		}
		// Later entries win ties.
		if !seen || proj.ProjectedPoints >= cur.proj.ProjectedPoints {
			best[dedupe] = slot{proj: proj, rating: c.Rating(p)}
		}
	}

	out := make([]slot, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].proj.ProjectedPoints > out[j].proj.ProjectedPoints
	})

	projections := make([]model.PlayerProjection, len(out))
	for i, s := range out {
		s.proj.ADP = c.ADP(s.proj.Position, s.rating, i)
		projections[i] = s.proj
	}

	zap.L().Debug("projections computed",
		zap.String("component", "projection"),
		zap.Int("players", len(players)),
		zap.Int("projected", len(projections)),
	)
	return projections
}

func indexChart(chart model.DepthChartPayload) map[string]int {
	out := map[string]int{}
	for teamID, byPos := range chart {
		for pos, slots := range byPos {
			for _, s := range slots {
				k := model.DepthKey{TeamID: teamID, Position: pos, PlayerKey: normalize.PlayerKey(s.PlayerName)}.String()
				if _, ok := out[k]; !ok {
					out[k] = s.PosRank
				}
			}
		}
	}
	return out
}

// Filter keeps projections at position (all when empty) and truncates to
// limit (no limit when <= 0).
func Filter(projections []model.PlayerProjection, position string, limit int) []model.PlayerProjection {
	out := projections
	if position != "" {
		pos := model.Position(strings.ToUpper(strings.TrimSpace(position)))
		out = make([]model.PlayerProjection, 0, len(projections))
		for _, p := range projections {
			if p.Position == pos {
				out = append(out, p)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
