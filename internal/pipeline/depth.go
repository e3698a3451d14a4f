package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/depth"
	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/normalize"
)

// RunDepth ingests depth charts for season and writes depth_chart_json and
// usage_priors_json. Nothing is persisted when the team map cannot be loaded.
func (r *Runner) RunDepth(ctx context.Context, season int) (*DepthSummary, error) {
	var sum *DepthSummary
	err := r.tracked(ctx, season, model.StageDepth, func() (map[string]any, error) {
		var err error
		sum, err = r.depth(ctx, season)
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

func (r *Runner) depth(ctx context.Context, season int) (*DepthSummary, error) {
	log := zap.L().With(zap.String("component", "pipeline.depth"), zap.Int("season", season))

	teams, err := r.src.LoadTeamMap(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := r.src.LoadDepth(ctx, season)
	if err != nil {
		return nil, err
	}

	norm := normalize.NormalizeDepth(raw, teams)
	res := r.resolver.Resolve(norm.Entries)
	entries := res.Entries()
	chart := depth.BuildChart(entries)

	overrides, err := r.src.LoadOverrides(ctx, season)
	if err != nil {
		return nil, err
	}
	priors := depth.ApplyOverrides(r.priors.Derive(chart), overrides)

	chartJSON, err := model.EncodeField(chart)
	if err != nil {
		return nil, err
	}
	priorsJSON, err := model.EncodeField(priors)
	if err != nil {
		return nil, err
	}

	stored, err := r.store.StoreDepth(ctx, season, model.ModelInputsPatch{
		DepthChartJSON:  chartJSON,
		UsagePriorsJSON: priorsJSON,
	}, entries)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: store depth")
	}

	if r.snapshots != nil {
		if err := r.snapshots.Depth(season, entries, chart, priors); err != nil {
			return nil, err
		}
	}

	teamsN, positions, players := chart.Counts()
	sum := &DepthSummary{
		Season:        season,
		Records:       len(raw),
		Teams:         teamsN,
		Positions:     positions,
		Players:       players,
		Conflicts:     res.Conflicts,
		Dropped:       norm.Dropped,
		Unmapped:      norm.Unmapped.Head(r.opts.UnmappedLimit),
		UnmappedTotal: len(norm.Unmapped),
		Overrides:     len(overrides),
		StoredEntries: stored,
	}
	if sum.UnmappedTotal > 0 {
		log.Warn("unmapped team names",
			zap.Strings("names", sum.Unmapped),
			zap.Int("total", sum.UnmappedTotal),
		)
	}
	log.Info("depth charts ingested",
		zap.Int("teams", sum.Teams),
		zap.Int("positions", sum.Positions),
		zap.Int("players", sum.Players),
		zap.Int("conflicts", sum.Conflicts),
	)
	return sum, nil
}
