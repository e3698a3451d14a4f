package source

import "github.com/sells-group/model-inputs-cli/internal/model"

// Extract describes one provider file family. Stems are tried in order.
type Extract struct {
	Name  string
	Stems []string
}

// DepthProviders lists the depth-chart providers in precedence order.
var DepthProviders = []model.Provider{
	model.ProviderTeamSites,
	model.ProviderOurlads,
	model.Provider247,
}

// Efficiency extracts.
var (
	ExtractSPPlus = Extract{Name: string(model.RatingSPPlus), Stems: []string{"sp_plus", "spplus"}}
	ExtractFEI    = Extract{Name: string(model.RatingFEI), Stems: []string{"fei"}}
	ExtractPace   = Extract{Name: "pace", Stems: []string{"pace"}}
	ExtractPlayer = Extract{Name: "players", Stems: []string{"players"}}
)

// Column aliases, first match wins.
var (
	depthPlayerCols = []string{"player_name", "name"}
	depthTeamCols   = []string{"team_name", "school", "team"}
	depthPosCols    = []string{"position", "pos"}
	depthRankCols   = []string{"pos_rank", "rank", "depth"}
	depthStatusCols = []string{"status", "injury_status"}
	depthNotesCols  = []string{"notes"}

	effTeamCols     = []string{"team_name", "team", "school"}
	paceGamesCols   = []string{"plays_per_game", "plays_pg"}
	paceSecCols     = []string{"sec_per_play", "seconds_per_play"}
	paceNeutralCols = []string{"neutral_plays_pg", "neutral_plays_per_game"}

	playerNameCols  = []string{"name", "player_name"}
	playerTeamCols  = []string{"team", "school", "team_name"}
	playerPosCols   = []string{"position", "pos"}
	playerConfCols  = []string{"conference", "conf"}
	playerRateCols  = []string{"rating", "overall"}
	playerFPCols    = []string{"fantasy_points", "projected_points", "fantasypoints"}
	playerDraftCols = []string{"draftable"}
)

// ratingCols returns the aliases for one rating sub-score. Prefixed
// columns (sp_off, fei_off) are preferred over bare ones.
func ratingCols(prefix, field string, bare ...string) []string {
	return append([]string{prefix + "_" + field, field}, bare...)
}
