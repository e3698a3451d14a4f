package model

// RatingSource identifies one of the independent team rating extracts.
type RatingSource string

const (
	RatingSPPlus RatingSource = "sp_plus"
	RatingFEI    RatingSource = "fei"
)

// RawRatingRow is one team's row from a rating extract. Nil means absent.
type RawRatingRow struct {
	TeamName string   `json:"team_name"`
	Off      *float64 `json:"off,omitempty"`
	Def      *float64 `json:"def,omitempty"`
	ST       *float64 `json:"st,omitempty"`
	Total    *float64 `json:"total,omitempty"`
	Rank     *float64 `json:"rank,omitempty"`
}

// RawPaceRow is one team's row from the pace extract.
type RawPaceRow struct {
	TeamName       string   `json:"team_name"`
	PlaysPerGame   *float64 `json:"plays_per_game,omitempty"`
	SecPerPlay     *float64 `json:"sec_per_play,omitempty"`
	NeutralPlaysPG *float64 `json:"neutral_plays_pg,omitempty"`
}

// RawEfficiency bundles the raw efficiency extracts for a season.
type RawEfficiency struct {
	SPPlus []RawRatingRow
	FEI    []RawRatingRow
	Pace   []RawPaceRow
}

// RatingMetrics are the raw sub-scores one source reported for a team.
type RatingMetrics struct {
	Off   *float64 `json:"off,omitempty"`
	Def   *float64 `json:"def,omitempty"`
	ST    *float64 `json:"st,omitempty"`
	Total *float64 `json:"total,omitempty"`
	Rank  *float64 `json:"rank,omitempty"`
}

// EfficiencyRaw keeps the contributing metrics for traceability.
type EfficiencyRaw struct {
	SPPlus *RatingMetrics `json:"sp_plus,omitempty"`
	FEI    *RatingMetrics `json:"fei,omitempty"`
	Pace   *RawPaceRow    `json:"pace,omitempty"`
}

// TeamEfficiencyRecord holds a team's composite z-scores and pace estimate.
type TeamEfficiencyRecord struct {
	OffEff          float64       `json:"off_eff"`
	DefEff          float64       `json:"def_eff"`
	SpecialTeamsEff float64       `json:"special_teams_eff"`
	PaceEst         float64       `json:"pace_est"`
	Raw             EfficiencyRaw `json:"raw"`
}

// PaceEstimate is the per-team pace payload.
type PaceEstimate struct {
	PlaysPerGame   float64  `json:"plays_per_game"`
	SecPerPlay     float64  `json:"sec_per_play"`
	NeutralPlaysPG *float64 `json:"neutral_plays_pg,omitempty"`
}

// OpponentGrades is a per-position matchup index in [70,130].
type OpponentGrades struct {
	QBGrade float64 `json:"QB_grade"`
	RBGrade float64 `json:"RB_grade"`
	WRGrade float64 `json:"WR_grade"`
	TEGrade float64 `json:"TE_grade"`
}

// TeamEfficiencyPayload maps team_id to its efficiency record.
type TeamEfficiencyPayload map[string]TeamEfficiencyRecord

// PaceEstimatesPayload maps team_id to its pace estimate.
type PaceEstimatesPayload map[string]PaceEstimate

// OpponentGradesPayload maps team_id to its matchup grades.
type OpponentGradesPayload map[string]OpponentGrades
