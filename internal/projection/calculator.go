// Package projection computes fantasy-point projections, depth-adjusted
// points and draft positions for individual players.
package projection

import (
	"math"
	"strings"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/tuning"
)

// Calculator applies the projection tables to players.
type Calculator struct {
	cfg         tuning.ProjectionConfig
	conferences map[string]float64
	power       map[string]struct{}
}

// NewCalculator creates a Calculator. Conference names match case-insensitively.
func NewCalculator(cfg tuning.ProjectionConfig) *Calculator {
	c := &Calculator{
		cfg:         cfg,
		conferences: make(map[string]float64, len(cfg.Conferences)),
		power:       make(map[string]struct{}, len(cfg.PowerConferences)),
	}
	for name, mult := range cfg.Conferences {
		c.conferences[confKey(name)] = mult
	}
	for _, name := range cfg.PowerConferences {
		c.power[confKey(name)] = struct{}{}
	}
	return c
}

func confKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Rating returns the player's rating, falling back to one derived from
// fantasy points and then to the default.
func (c *Calculator) Rating(p model.Player) float64 {
	if p.Rating > 0 {
		return p.Rating
	}
	if p.FantasyPoints > 0 {
		return math.Min(99, math.Round(60+p.FantasyPoints/10))
	}
	return c.cfg.DefaultRating
}

// RatingMultiplier scales base points by rating, floored at the minimum.
func (c *Calculator) RatingMultiplier(rating float64) float64 {
	return math.Max(c.cfg.MinRatingMultiplier, rating/c.cfg.RatingDivisor)
}

// ConferenceMultiplier returns the conference strength factor, 1.0 if unlisted.
func (c *Calculator) ConferenceMultiplier(conference string) float64 {
	if m, ok := c.conferences[confKey(conference)]; ok {
		return m
	}
	return 1.0
}

// BasePoints returns the position baseline.
func (c *Calculator) BasePoints(pos model.Position) float64 {
	if b, ok := c.cfg.BasePoints[pos]; ok {
		return b
	}
	return c.cfg.FallbackBase
}

// ProjectedPoints returns the baseline projection. Authoritative fantasy
// points win when present.
func (c *Calculator) ProjectedPoints(p model.Player) (points int, authoritative bool) {
	if p.FantasyPoints > 0 {
		return int(math.Round(p.FantasyPoints)), true
	}
	v := c.BasePoints(p.Position) * c.RatingMultiplier(c.Rating(p)) * c.ConferenceMultiplier(p.Conference)
	return int(math.Round(v)), false
}

// DepthMultiplier returns the depth-curve weight for a 1-based rank. Ranks
// below 1 and unknown positions return 1.0.
func (c *Calculator) DepthMultiplier(pos model.Position, rank int) float64 {
	if rank <= 0 {
		return 1.0
	}
	curve, ok := c.cfg.DepthCurves[pos]
	if !ok {
		return 1.0
	}
	return curve.At(rank - 1)
}

// ADP estimates average draft position from a 0-based list index.
func (c *Calculator) ADP(pos model.Position, rating float64, index int) int {
	mult, ok := c.cfg.ADPMultipliers[pos]
	if !ok {
		mult = c.cfg.ADPFallback
	}
	return int(math.Round(float64(index+1)*mult + ((99-rating)/20)*10))
}

// Draftable honours an explicit flag, otherwise requires a power conference.
func (c *Calculator) Draftable(p model.Player) bool {
	if p.Draftable != nil {
		return *p.Draftable
	}
	_, ok := c.power[confKey(p.Conference)]
	return ok
}

// Project computes a single projection. depthRank is 0 when the player is
// not on the depth chart. ADP is computed for list index 0.
func (c *Calculator) Project(p model.Player, depthRank int) model.PlayerProjection {
	rating := c.Rating(p)
	points, authoritative := c.ProjectedPoints(p)
	mult := c.DepthMultiplier(p.Position, depthRank)

	return model.PlayerProjection{
		Name:            p.Name,
		Team:            p.Team,
		Position:        p.Position,
		Conference:      p.Conference,
		Rating:          int(math.Round(rating)),
		ProjectedPoints: points,
		ADP:             c.ADP(p.Position, rating, 0),
		Draftable:       c.Draftable(p),
		DepthRank:       depthRank,
		DepthMultiplier: mult,
		AdjustedPoints:  int(math.Round(float64(points) * mult)),
		Authoritative:   authoritative,
	}
}
