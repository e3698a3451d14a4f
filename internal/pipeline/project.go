package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/store"
)

// Project reads the season's players extract and stored depth chart and
// returns projections ordered by points. A season without a stored document
// is projected with no depth context.
func (r *Runner) Project(ctx context.Context, season int) ([]model.PlayerProjection, error) {
	log := zap.L().With(zap.String("component", "pipeline.project"), zap.Int("season", season))

	players, err := r.src.LoadPlayers(ctx, season)
	if err != nil {
		return nil, err
	}
	teams, err := r.src.LoadTeamMap(ctx)
	if err != nil {
		return nil, err
	}

	chart := model.DepthChartPayload{}
	doc, err := r.store.GetModelInputs(ctx, season)
	switch {
	case eris.Is(err, store.ErrNotFound):
		log.Warn("no stored depth chart, projecting without depth context")
	case err != nil:
		return nil, eris.Wrap(err, "pipeline: read model inputs")
	default:
		if chart, err = doc.DepthChart(); err != nil {
			return nil, err
		}
	}

	out := r.calc.ProjectAll(players, chart, teams)
	log.Info("players projected", zap.Int("players", len(players)), zap.Int("projections", len(out)))
	return out, nil
}
