package model

import (
	"strings"
	"time"
)

// Position is a canonical roster position code.
type Position string

const (
	PositionQB Position = "QB"
	PositionRB Position = "RB"
	PositionWR Position = "WR"
	PositionTE Position = "TE"
	PositionK  Position = "K"
)

// DepthPositions are the positions tracked on the depth chart and in usage priors.
var DepthPositions = []Position{PositionQB, PositionRB, PositionWR, PositionTE}

// ParseDepthPosition upper-cases s and reports whether it is a depth-chart position.
func ParseDepthPosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PositionQB, PositionRB, PositionWR, PositionTE:
		return p, true
	default:
		return "", false
	}
}

// Status is a player's availability as reported on a depth chart.
type Status string

const (
	StatusHealthy      Status = "Healthy"
	StatusQuestionable Status = "Questionable"
	StatusDayToDay     Status = "DayToDay"
	StatusOut          Status = "Out"
	StatusRedshirt     Status = "Redshirt"
	StatusFreshman     Status = "Freshman"
)

// Provider identifies a raw extract source.
type Provider string

const (
	ProviderTeamSites Provider = "team_sites"
	ProviderOurlads   Provider = "ourlads"
	Provider247       Provider = "247"
)

// Provenance records where a value came from.
type Provenance struct {
	Source  Provider  `json:"source"`
	ModTime time.Time `json:"mtime"`
}

// RawDepthRecord is one depth-chart line exactly as a provider wrote it.
type RawDepthRecord struct {
	PlayerName string `json:"player_name"`
	TeamName   string `json:"team_name"`
	Position   string `json:"position"`
	PosRank    string `json:"pos_rank"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Provenance
}

// DepthKey identifies a single player slot across providers.
type DepthKey struct {
	TeamID    string
	Position  Position
	PlayerKey string
}

// String renders the key as team|pos|player.
func (k DepthKey) String() string {
	return k.TeamID + "|" + string(k.Position) + "|" + k.PlayerKey
}

// CanonicalDepthEntry is a normalized depth record.
type CanonicalDepthEntry struct {
	TeamID     string   `json:"team_id"`
	TeamName   string   `json:"team_name"`
	PlayerName string   `json:"player_name"`
	PlayerKey  string   `json:"player_key"`
	Position   Position `json:"position"`
	PosRank    int      `json:"pos_rank"`
	Status     Status   `json:"status"`
	Notes      string   `json:"notes,omitempty"`
	Provenance
}

// Key returns the entry's resolution key.
func (e CanonicalDepthEntry) Key() DepthKey {
	return DepthKey{TeamID: e.TeamID, Position: e.Position, PlayerKey: e.PlayerKey}
}

// DepthSlot is one ordered slot in a team's position group.
type DepthSlot struct {
	PlayerName string   `json:"player_name"`
	PosRank    int      `json:"pos_rank"`
	Status     Status   `json:"status"`
	Source     Provider `json:"source"`
	Notes      string   `json:"notes,omitempty"`
}

// DepthChartPayload maps team_id -> position -> slots ascending by pos_rank.
type DepthChartPayload map[string]map[Position][]DepthSlot

// Counts returns the number of teams, position groups and slots.
func (p DepthChartPayload) Counts() (teams, positions, players int) {
	for _, byPos := range p {
		teams++
		for _, slots := range byPos {
			positions++
			players += len(slots)
		}
	}
	return teams, positions, players
}

// UsageShare is a player's prior share of team opportunity.
type UsageShare struct {
	PlayerName  string   `json:"player_name"`
	SnapShare   float64  `json:"snap_share"`
	RushShare   *float64 `json:"rush_share,omitempty"`
	TargetShare *float64 `json:"target_share,omitempty"`
}

// UsagePriorsPayload maps team_id -> position -> usage shares.
type UsagePriorsPayload map[string]map[Position][]UsageShare
