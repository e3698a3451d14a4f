// Package efficiency merges independent team rating extracts into composite
// strength indices, pace estimates and opponent grades.
package efficiency

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/normalize"
)

const (
	basePace      = 68.0
	minPace       = 60.0
	maxPace       = 80.0
	baseSecPlay   = 24.0
	secPlayFactor = 1.2
	unmappedLog   = 20
)

// Result is the merged efficiency output for one season.
type Result struct {
	Teams    model.TeamEfficiencyPayload
	Pace     model.PaceEstimatesPayload
	Grades   model.OpponentGradesPayload
	Unmapped normalize.NameSet
	Dropped  int // rows without a team name
}

type dimension func(model.RatingMetrics) *float64

var (
	offense      dimension = func(m model.RatingMetrics) *float64 { return m.Off }
	defense      dimension = func(m model.RatingMetrics) *float64 { return m.Def }
	specialTeams dimension = func(m model.RatingMetrics) *float64 { return m.ST }
)

// Merge maps every extract through teams and computes the composite records.
// Unmapped teams are logged and dropped. The team universe is every mapped
// team seen in any extract.
func Merge(raw model.RawEfficiency, teams *normalize.TeamMap) Result {
	log := zap.L().With(zap.String("component", "efficiency"))
	res := Result{
		Teams:    model.TeamEfficiencyPayload{},
		Pace:     model.PaceEstimatesPayload{},
		Grades:   model.OpponentGradesPayload{},
		Unmapped: normalize.NameSet{},
	}

	sp := mapRatings(raw.SPPlus, teams, &res)
	fei := mapRatings(raw.FEI, teams, &res)
	pace := mapPace(raw.Pace, teams, &res)

	universe := map[string]struct{}{}
	for id := range sp {
		universe[id] = struct{}{}
	}
	for id := range fei {
		universe[id] = struct{}{}
	}
	for id := range pace {
		universe[id] = struct{}{}
	}

	zSP := map[string]map[string]float64{}
	zFEI := map[string]map[string]float64{}
	for name, dim := range map[string]dimension{"off": offense, "def": defense, "st": specialTeams} {
		zSP[name] = zScores(collect(sp, dim))
		zFEI[name] = zScores(collect(fei, dim))
	}

	for id := range universe {
		composite := func(dim string) float64 {
			return round3(meanOf(lookup(zSP[dim], id), lookup(zFEI[dim], id)))
		}
		rec := model.TeamEfficiencyRecord{
			OffEff:          composite("off"),
			DefEff:          composite("def"),
			SpecialTeamsEff: composite("st"),
		}

		if m, ok := sp[id]; ok {
			rec.Raw.SPPlus = &m
		}
		if m, ok := fei[id]; ok {
			rec.Raw.FEI = &m
		}
		p, hasPace := pace[id]
		if hasPace {
			rec.Raw.Pace = &p
		}

		if hasPace && p.PlaysPerGame != nil && *p.PlaysPerGame > 0 {
			rec.PaceEst = round1(*p.PlaysPerGame)
		} else {
			rec.PaceEst = round1(clamp(minPace, maxPace, basePace+(Idx(rec.OffEff)-100)/3))
		}

		est := model.PaceEstimate{
			PlaysPerGame: rec.PaceEst,
			SecPerPlay:   round1(baseSecPlay - rec.OffEff*secPlayFactor),
		}
		if hasPace {
			if p.PlaysPerGame != nil {
				est.PlaysPerGame = *p.PlaysPerGame
			}
			if p.SecPerPlay != nil {
				est.SecPerPlay = *p.SecPerPlay
			}
			est.NeutralPlaysPG = p.NeutralPlaysPG
		}

		grade := Idx(-rec.DefEff)
		res.Teams[id] = rec
		res.Pace[id] = est
		res.Grades[id] = model.OpponentGrades{QBGrade: grade, RBGrade: grade, WRGrade: grade, TEGrade: grade}
	}

	if len(res.Unmapped) > 0 {
		log.Warn("unmapped efficiency teams",
			zap.Int("count", len(res.Unmapped)),
			zap.Strings("sample", res.Unmapped.Head(unmappedLog)),
		)
	}
	log.Info("efficiency merged",
		zap.Int("teams", len(res.Teams)),
		zap.Int("sp_plus", len(sp)),
		zap.Int("fei", len(fei)),
		zap.Int("pace", len(pace)),
	)
	return res
}

func mapRatings(rows []model.RawRatingRow, teams *normalize.TeamMap, res *Result) map[string]model.RatingMetrics {
	out := make(map[string]model.RatingMetrics, len(rows))
	for _, r := range rows {
		id, ok := resolveTeam(r.TeamName, teams, res)
		if !ok {
			continue
		}
		out[id] = model.RatingMetrics{Off: r.Off, Def: r.Def, ST: r.ST, Total: r.Total, Rank: r.Rank}
	}
	return out
}

func mapPace(rows []model.RawPaceRow, teams *normalize.TeamMap, res *Result) map[string]model.RawPaceRow {
	out := make(map[string]model.RawPaceRow, len(rows))
	for _, r := range rows {
		id, ok := resolveTeam(r.TeamName, teams, res)
		if !ok {
			continue
		}
		r.TeamName = strings.TrimSpace(r.TeamName)
		out[id] = r
	}
	return out
}

func resolveTeam(name string, teams *normalize.TeamMap, res *Result) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		res.Dropped++
		return "", false
	}
	id, ok := teams.Lookup(name)
	if !ok {
		res.Unmapped.Add(name)
		return "", false
	}
	return id, true
}

func collect(src map[string]model.RatingMetrics, dim dimension) map[string]float64 {
	out := make(map[string]float64, len(src))
	for id, m := range src {
		if v := dim(m); v != nil {
			out[id] = *v
		}
	}
	return out
}

func lookup(z map[string]float64, id string) *float64 {
	v, ok := z[id]
	if !ok {
		return nil
	}
	return &v
}

// TeamZ pairs a team with a composite z-score.
type TeamZ struct {
	TeamID string  `json:"team_id"`
	Z      float64 `json:"z"`
}

// Leaders are the summary lists printed after an efficiency run.
type Leaders struct {
	TopOffense    []TeamZ `json:"top_offense"`
	BottomOffense []TeamZ `json:"bottom_offense"`
	TopDefense    []TeamZ `json:"top_defense"`
}

// Leaders returns the n best and worst offenses and the n defenses with the
// lowest def_eff.
func (r Result) Leaders(n int) Leaders {
	off := make([]TeamZ, 0, len(r.Teams))
	def := make([]TeamZ, 0, len(r.Teams))
	for id, rec := range r.Teams {
		off = append(off, TeamZ{TeamID: id, Z: rec.OffEff})
		def = append(def, TeamZ{TeamID: id, Z: rec.DefEff})
	}
	sort.Slice(off, func(i, j int) bool {
		if off[i].Z != off[j].Z {
			return off[i].Z > off[j].Z
		}
		return off[i].TeamID < off[j].TeamID
	})
	sort.Slice(def, func(i, j int) bool {
		if def[i].Z != def[j].Z {
			return def[i].Z < def[j].Z
		}
		return def[i].TeamID < def[j].TeamID
	})

	k := min(n, len(off))
	return Leaders{
		TopOffense:    off[:k],
		BottomOffense: off[len(off)-k:],
		TopDefense:    def[:k],
	}
}
