package model

// Player is a projection input row.
type Player struct {
	Name          string   `json:"name"`
	Team          string   `json:"team"`
	Position      Position `json:"position"`
	Conference    string   `json:"conference"`
	Rating        float64  `json:"rating,omitempty"`
	FantasyPoints float64  `json:"fantasy_points,omitempty"`
	Draftable     *bool    `json:"draftable,omitempty"`
}

// PlayerProjection is the computed projection for one player.
type PlayerProjection struct {
	Name            string   `json:"name"`
	Team            string   `json:"team"`
	TeamID          string   `json:"team_id,omitempty"`
	Position        Position `json:"position"`
	Conference      string   `json:"conference"`
	Rating          int      `json:"rating"`
	ProjectedPoints int      `json:"projectedPoints"`
	ADP             int      `json:"adp"`
	Draftable       bool     `json:"draftable"`
	DepthRank       int      `json:"depth_rank,omitempty"`
	DepthMultiplier float64  `json:"depth_multiplier"`
	AdjustedPoints  int      `json:"adjusted_points"`
	Authoritative   bool     `json:"authoritative"`
}
