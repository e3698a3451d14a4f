package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// DepthResult is the output of NormalizeDepth.
type DepthResult struct {
	Entries  []model.CanonicalDepthEntry
	Unmapped NameSet
	Dropped  int // malformed rows: bad position, blank team or player, bad rank
}

// NormalizeDepth converts raw provider records into canonical entries.
// Unmapped team names are collected rather than treated as errors.
func NormalizeDepth(records []model.RawDepthRecord, teams *TeamMap) DepthResult {
	log := zap.L().With(zap.String("component", "normalize.depth"))
	res := DepthResult{Unmapped: NameSet{}}

	for _, r := range records {
		pos, ok := model.ParseDepthPosition(r.Position)
		if !ok {
			res.Dropped++
			continue
		}

		teamName := strings.TrimSpace(r.TeamName)
		if teamName == "" {
			res.Dropped++
			continue
		}
		teamID, ok := teams.Lookup(teamName)
		if !ok {
			res.Unmapped.Add(teamName)
			continue
		}

		playerName := strings.TrimSpace(r.PlayerName)
		if playerName == "" {
			res.Dropped++
			continue
		}

		rank, ok := Rank(r.PosRank)
		if !ok {
			log.Debug("dropping row with bad rank",
				zap.String("provider", string(r.Source)),
				zap.String("team", teamName),
				zap.String("player", playerName),
				zap.String("pos_rank", r.PosRank),
			)
			res.Dropped++
			continue
		}

		res.Entries = append(res.Entries, model.CanonicalDepthEntry{
			TeamID:     teamID,
			TeamName:   teamName,
			PlayerName: playerName,
			PlayerKey:  PlayerKey(playerName),
			Position:   pos,
			PosRank:    rank,
			Status:     Status(r.Status),
			Notes:      strings.TrimSpace(r.Notes),
			Provenance: r.Provenance,
		})
	}

	return res
}
