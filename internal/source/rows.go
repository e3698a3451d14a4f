package source

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/model-inputs-cli/internal/fetcher"
	"github.com/sells-group/model-inputs-cli/internal/model"
)

// parseNumber returns a finite float from a cell, or nil when the cell is
// blank or not a number. Thousands separators are ignored.
func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func depthRecord(r fetcher.Record, prov model.Provenance) model.RawDepthRecord {
	return model.RawDepthRecord{
		PlayerName: r.First(depthPlayerCols...),
		TeamName:   r.First(depthTeamCols...),
		Position:   r.First(depthPosCols...),
		PosRank:    r.First(depthRankCols...),
		Status:     r.First(depthStatusCols...),
		Notes:      r.First(depthNotesCols...),
		Provenance: prov,
	}
}

func ratingRow(r fetcher.Record, prefix string) model.RawRatingRow {
	return model.RawRatingRow{
		TeamName: r.First(effTeamCols...),
		Off:      parseNumber(r.First(ratingCols(prefix, "off", "offense")...)),
		Def:      parseNumber(r.First(ratingCols(prefix, "def", "defense")...)),
		ST:       parseNumber(r.First(ratingCols(prefix, "st", "special_teams")...)),
		Total:    parseNumber(r.First(ratingCols(prefix, "total", "rating")...)),
		Rank:     parseNumber(r.First(ratingCols(prefix, "rank")...)),
	}
}

func paceRow(r fetcher.Record) model.RawPaceRow {
	return model.RawPaceRow{
		TeamName:       r.First(effTeamCols...),
		PlaysPerGame:   parseNumber(r.First(paceGamesCols...)),
		SecPerPlay:     parseNumber(r.First(paceSecCols...)),
		NeutralPlaysPG: parseNumber(r.First(paceNeutralCols...)),
	}
}

// playerRow converts a players-extract row. Rows without a name are rejected.
func playerRow(r fetcher.Record) (model.Player, bool) {
	p := model.Player{
		Name:       r.First(playerNameCols...),
		Team:       r.First(playerTeamCols...),
		Position:   model.Position(strings.ToUpper(r.First(playerPosCols...))),
		Conference: r.First(playerConfCols...),
	}
	if p.Name == "" {
		return p, false
	}
	if v := parseNumber(r.First(playerRateCols...)); v != nil {
		p.Rating = *v
	}
	if v := parseNumber(r.First(playerFPCols...)); v != nil {
		p.FantasyPoints = *v
	}
	if b, err := strconv.ParseBool(r.First(playerDraftCols...)); err == nil {
		p.Draftable = &b
	}
	return p, true
}
