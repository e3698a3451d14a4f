package depth

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// Overrides are hand-maintained usage arrays keyed by team_id and position.
type Overrides map[string]map[model.Position][]model.UsageShare

// DecodeOverrides parses an overrides file. Position keys are case-insensitive;
// unknown positions are skipped with a warning.
func DecodeOverrides(r io.Reader) (Overrides, error) {
	var raw map[string]map[string][]model.UsageShare
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "depth: decode overrides")
	}

	out := make(Overrides, len(raw))
	for teamID, byPos := range raw {
		for key, shares := range byPos {
			pos, ok := model.ParseDepthPosition(key)
			if !ok {
				zap.L().Warn("override for unknown position skipped",
					zap.String("team", teamID),
					zap.String("position", key),
				)
				continue
			}
			if out[teamID] == nil {
				out[teamID] = make(map[model.Position][]model.UsageShare)
			}
			out[teamID][pos] = shares
		}
	}
	return out, nil
}

// ApplyOverrides returns computed with every overridden (team, position)
// array replaced wholesale. computed is not modified.
func ApplyOverrides(computed model.UsagePriorsPayload, ov Overrides) model.UsagePriorsPayload {
	out := make(model.UsagePriorsPayload, len(computed))
	for teamID, byPos := range computed {
		team := make(map[model.Position][]model.UsageShare, len(byPos))
		for pos, shares := range byPos {
			team[pos] = shares
		}
		out[teamID] = team
	}

	for teamID, byPos := range ov {
		team, ok := out[teamID]
		if !ok {
			team = make(map[model.Position][]model.UsageShare, len(byPos))
			out[teamID] = team
		}
		for pos, shares := range byPos {
			replaced := make([]model.UsageShare, len(shares))
			copy(replaced, shares)
			team[pos] = replaced
		}
	}
	return out
}
