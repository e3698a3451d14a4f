package depth

import (
	"math"
	"regexp"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/tuning"
)

// PriorsDeriver turns depth order into usage-share estimates.
type PriorsDeriver struct {
	cfg   tuning.PriorsConfig
	twoTE *regexp.Regexp
}

// NewPriorsDeriver creates a deriver from the tuning curves.
func NewPriorsDeriver(t *tuning.Tuning) (*PriorsDeriver, error) {
	re, err := t.TwoTERegexp()
	if err != nil {
		return nil, err
	}
	return &PriorsDeriver{cfg: t.Priors, twoTE: re}, nil
}

// Derive computes usage priors for every team and position in chart.
// Empty position groups produce no entry.
func (d *PriorsDeriver) Derive(chart model.DepthChartPayload) model.UsagePriorsPayload {
	out := model.UsagePriorsPayload{}
	for teamID, byPos := range chart {
		team := make(map[model.Position][]model.UsageShare)
		for pos, slots := range byPos {
			if len(slots) == 0 {
				continue
			}
			var shares []model.UsageShare
			switch pos {
			case model.PositionQB:
				shares = d.qb(slots)
			case model.PositionRB:
				shares = d.rb(slots)
			case model.PositionWR:
				shares = d.wr(slots)
			case model.PositionTE:
				shares = d.te(slots)
			default:
				continue
			}
			team[pos] = shares
		}
		if len(team) > 0 {
			out[teamID] = team
		}
	}
	return out
}

func (d *PriorsDeriver) qb(slots []model.DepthSlot) []model.UsageShare {
	out := make([]model.UsageShare, len(slots))
	for i, s := range slots {
		share := d.cfg.QBBackupShare
		if i == 0 {
			share = d.cfg.QBStarterShare
		}
		out[i] = model.UsageShare{PlayerName: s.PlayerName, SnapShare: round2(share)}
	}
	return out
}

func (d *PriorsDeriver) rb(slots []model.DepthSlot) []model.UsageShare {
	weights := curveWeights(d.cfg.RB, len(slots))
	shares := normalizeToSum(weights, math.Min(d.cfg.RBCap, sum(weights)))
	out := make([]model.UsageShare, len(slots))
	for i, s := range slots {
		rush := round2(shares[i] * d.cfg.RushFactor)
		out[i] = model.UsageShare{PlayerName: s.PlayerName, SnapShare: round2(shares[i]), RushShare: &rush}
	}
	return out
}

func (d *PriorsDeriver) wr(slots []model.DepthSlot) []model.UsageShare {
	shares := normalizeToSum(curveWeights(d.cfg.WR, len(slots)), d.cfg.WRTarget)
	return targetShares(slots, shares)
}

func (d *PriorsDeriver) te(slots []model.DepthSlot) []model.UsageShare {
	limit := d.cfg.TECap
	for i := 0; i < len(slots) && i < 2; i++ {
		if d.twoTE.MatchString(slots[i].Notes) {
			limit = d.cfg.TETwoTECap
			break
		}
	}
	shares := normalizeToSum(curveWeights(d.cfg.TE, len(slots)), limit)
	return targetShares(slots, shares)
}

func targetShares(slots []model.DepthSlot, shares []float64) []model.UsageShare {
	out := make([]model.UsageShare, len(slots))
	for i, s := range slots {
		v := round2(shares[i])
		target := v
		out[i] = model.UsageShare{PlayerName: s.PlayerName, SnapShare: v, TargetShare: &target}
	}
	return out
}

func curveWeights(c tuning.Curve, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = c.At(i)
	}
	return w
}

// normalizeToSum scales values so they sum to target. A zero sum is treated as 1.
func normalizeToSum(values []float64, target float64) []float64 {
	total := sum(values)
	if total == 0 {
		total = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / total * target
	}
	return out
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
