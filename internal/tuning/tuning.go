// Package tuning holds the precedence table, usage curves and projection
// tables that drive the pipeline, with an optional YAML overlay.
package tuning

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// Curve is a weight sequence indexed from zero. Indexes past the end use Beyond.
type Curve struct {
	Weights []float64 `yaml:"weights"`
	Beyond  float64   `yaml:"beyond"`
}

// At returns the weight at index i.
func (c Curve) At(i int) float64 {
	if i >= 0 && i < len(c.Weights) {
		return c.Weights[i]
	}
	return c.Beyond
}

// PriorsConfig holds the usage-share heuristics per position.
type PriorsConfig struct {
	QBStarterShare float64 `yaml:"qb_starter_share"`
	QBBackupShare  float64 `yaml:"qb_backup_share"`

	RB         Curve   `yaml:"rb"`
	RBCap      float64 `yaml:"rb_cap"`
	RushFactor float64 `yaml:"rush_factor"`

	WR       Curve   `yaml:"wr"`
	WRTarget float64 `yaml:"wr_target"`

	TE           Curve   `yaml:"te"`
	TECap        float64 `yaml:"te_cap"`
	TETwoTECap   float64 `yaml:"te_two_te_cap"`
	TwoTEPattern string  `yaml:"two_te_pattern"`
}

// ProjectionConfig holds the projection and ADP tables.
type ProjectionConfig struct {
	BasePoints          map[model.Position]float64 `yaml:"base_points"`
	FallbackBase        float64                    `yaml:"fallback_base"`
	RatingDivisor       float64                    `yaml:"rating_divisor"`
	MinRatingMultiplier float64                    `yaml:"min_rating_multiplier"`
	DefaultRating       float64                    `yaml:"default_rating"`
	Conferences         map[string]float64         `yaml:"conferences"`
	PowerConferences    []string                   `yaml:"power_conferences"`
	DepthCurves         map[model.Position]Curve   `yaml:"depth_curves"`
	ADPMultipliers      map[model.Position]float64 `yaml:"adp_multipliers"`
	ADPFallback         float64                    `yaml:"adp_fallback"`
}

// Tuning is the full set of pipeline constants.
type Tuning struct {
	Precedence map[model.Provider]int `yaml:"precedence"`
	Priors     PriorsConfig           `yaml:"priors"`
	Projection ProjectionConfig       `yaml:"projection"`
}

// Default returns the built-in tuning.
func Default() *Tuning {
	return &Tuning{
		Precedence: map[model.Provider]int{
			model.ProviderTeamSites: 3,
			model.ProviderOurlads:   2,
			model.Provider247:       1,
		},
		Priors: PriorsConfig{
			QBStarterShare: 0.95,
			QBBackupShare:  0.05,
			RB:             Curve{Weights: []float64{0.6, 0.3, 0.1}, Beyond: 0},
			RBCap:          0.95,
			RushFactor:     0.9,
			WR:             Curve{Weights: []float64{0.8, 0.7, 0.6}, Beyond: 0.2},
			WRTarget:       1.0,
			TE:             Curve{Weights: []float64{0.7, 0.35, 0.15}, Beyond: 0.15},
			TECap:          0.85,
			TETwoTECap:     1.0,
			TwoTEPattern:   `(?i)12\s*-?personnel`,
		},
		Projection: ProjectionConfig{
			BasePoints: map[model.Position]float64{
				model.PositionQB: 280,
				model.PositionRB: 220,
				model.PositionWR: 200,
				model.PositionTE: 160,
				model.PositionK:  140,
			},
			FallbackBase:        180,
			RatingDivisor:       80,
			MinRatingMultiplier: 0.5,
			DefaultRating:       80,
			Conferences: map[string]float64{
				"SEC":     1.15,
				"Big Ten": 1.10,
				"Big 12":  1.05,
				"ACC":     1.02,
			},
			PowerConferences: []string{"SEC", "Big Ten", "Big 12", "ACC"},
			DepthCurves: map[model.Position]Curve{
				model.PositionQB: {Weights: []float64{1.0, 0.25, 0.08, 0.03, 0.01}, Beyond: 0.01},
				model.PositionRB: {Weights: []float64{1.0, 0.6, 0.4, 0.25, 0.15}, Beyond: 0.1},
				model.PositionWR: {Weights: []float64{1.0, 0.8, 0.6, 0.35, 0.2}, Beyond: 0.15},
				model.PositionTE: {Weights: []float64{1.0, 0.35, 0.15}, Beyond: 0.1},
				model.PositionK:  {Weights: []float64{1.0, 0.2}, Beyond: 0.1},
			},
			ADPMultipliers: map[model.Position]float64{
				model.PositionRB: 1.0,
				model.PositionWR: 1.1,
				model.PositionQB: 1.3,
				model.PositionTE: 1.5,
				model.PositionK:  2.0,
			},
			ADPFallback: 1.5,
		},
	}
}

// Load returns Default with the YAML file at path laid over it. An empty
// path returns the defaults. The file has a top-level "tuning" key.
func Load(path string) (*Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tuning: read %s", path)
	}

	wrapper := struct {
		Tuning *Tuning `yaml:"tuning"`
	}{Tuning: t}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "tuning: parse")
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// TwoTERegexp compiles the two-tight-end notes pattern.
func (t *Tuning) TwoTERegexp() (*regexp.Regexp, error) {
	re, err := regexp.Compile(t.Priors.TwoTEPattern)
	if err != nil {
		return nil, eris.Wrap(err, "tuning: compile two_te_pattern")
	}
	return re, nil
}

// Validate checks the tuning is internally consistent.
func (t *Tuning) Validate() error {
	var errs []string

	for p, v := range t.Precedence {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("precedence for %s must be >= 0", p))
		}
	}

	pr := t.Priors
	curves := map[string]Curve{"rb": pr.RB, "wr": pr.WR, "te": pr.TE}
	for name, c := range curves {
		errs = append(errs, validateCurve("priors."+name, c)...)
	}
	caps := map[string]float64{
		"qb_starter_share": pr.QBStarterShare,
		"qb_backup_share":  pr.QBBackupShare,
		"rb_cap":           pr.RBCap,
		"rush_factor":      pr.RushFactor,
		"wr_target":        pr.WRTarget,
		"te_cap":           pr.TECap,
		"te_two_te_cap":    pr.TETwoTECap,
	}
	for name, v := range caps {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("priors.%s must be in (0,1]", name))
		}
	}
	if _, err := regexp.Compile(pr.TwoTEPattern); err != nil {
		errs = append(errs, "priors.two_te_pattern does not compile")
	}

	pj := t.Projection
	for p, v := range pj.BasePoints {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("projection.base_points.%s must be > 0", p))
		}
	}
	if pj.FallbackBase <= 0 {
		errs = append(errs, "projection.fallback_base must be > 0")
	}
	if pj.RatingDivisor <= 0 {
		errs = append(errs, "projection.rating_divisor must be > 0")
	}
	for name, v := range pj.Conferences {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("projection.conferences.%s must be > 0", name))
		}
	}
	for p, c := range pj.DepthCurves {
		errs = append(errs, validateCurve("projection.depth_curves."+string(p), c)...)
	}
	for p, v := range pj.ADPMultipliers {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("projection.adp_multipliers.%s must be > 0", p))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("tuning: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCurve(name string, c Curve) []string {
	var errs []string
	if len(c.Weights) == 0 {
		errs = append(errs, name+" weights must not be empty")
	}
	for i, w := range c.Weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s weight %d must be >= 0", name, i))
		}
	}
	if c.Beyond < 0 {
		errs = append(errs, name+" beyond must be >= 0")
	}
	return errs
}
