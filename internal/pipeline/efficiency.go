package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/efficiency"
	"github.com/sells-group/model-inputs-cli/internal/model"
)

// RunEfficiency merges the efficiency extracts for season and writes
// team_efficiency_json, pace_estimates_json and, when absent,
// opponent_grades_by_pos.
func (r *Runner) RunEfficiency(ctx context.Context, season int) (*EfficiencySummary, error) {
	var sum *EfficiencySummary
	err := r.tracked(ctx, season, model.StageEfficiency, func() (map[string]any, error) {
		var err error
		sum, err = r.efficiency(ctx, season)
		if err != nil {
			return nil, err
		}
		return sum.Fields(), nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (r *Runner) efficiency(ctx context.Context, season int) (*EfficiencySummary, error) {
	log := zap.L().With(zap.String("component", "pipeline.efficiency"), zap.Int("season", season))

	teams, err := r.src.LoadTeamMap(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := r.src.LoadEfficiency(ctx, season)
	if err != nil {
		return nil, err
	}

	res := efficiency.Merge(raw, teams)

	teamJSON, err := model.EncodeField(res.Teams)
	if err != nil {
		return nil, err
	}
	paceJSON, err := model.EncodeField(res.Pace)
	if err != nil {
		return nil, err
	}
	gradesJSON, err := model.EncodeField(res.Grades)
	if err != nil {
		return nil, err
	}

	if err := r.store.UpsertModelInputs(ctx, season, model.ModelInputsPatch{
		TeamEfficiencyJSON: teamJSON,
		PaceEstimatesJSON:  paceJSON,
		OpponentGradesJSON: gradesJSON,
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: store efficiency document")
	}

	if r.snapshots != nil {
		if err := r.snapshots.Efficiency(season, res); err != nil {
			return nil, err
		}
	}

	sum := &EfficiencySummary{
		Season:        season,
		Teams:         len(res.Teams),
		SPPlusRows:    len(raw.SPPlus),
		FEIRows:       len(raw.FEI),
		PaceRows:      len(raw.Pace),
		Dropped:       res.Dropped,
		Unmapped:      res.Unmapped.Head(r.opts.UnmappedLimit),
		UnmappedTotal: len(res.Unmapped),
		Leaders:       res.Leaders(r.opts.LeaderCount),
	}
	log.Info("team efficiency ingested",
		zap.Int("teams", sum.Teams),
		zap.Int("unmapped", sum.UnmappedTotal),
	)
	return sum, nil
}
