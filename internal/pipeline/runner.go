// Package pipeline sequences the depth and efficiency stages for a season:
// load extracts, normalize, resolve, derive, then persist the document and
// write snapshots.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/model-inputs-cli/internal/depth"
	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/normalize"
	"github.com/sells-group/model-inputs-cli/internal/projection"
	"github.com/sells-group/model-inputs-cli/internal/store"
	"github.com/sells-group/model-inputs-cli/internal/tuning"
)

// Source reads the raw extracts for a season. *source.Loader implements it.
type Source interface {
	LoadDepth(ctx context.Context, season int) ([]model.RawDepthRecord, error)
	LoadEfficiency(ctx context.Context, season int) (model.RawEfficiency, error)
	LoadTeamMap(ctx context.Context) (*normalize.TeamMap, error)
	LoadOverrides(ctx context.Context, season int) (depth.Overrides, error)
	LoadPlayers(ctx context.Context, season int) ([]model.Player, error)
}

// Options controls a Runner.
type Options struct {
	// Concurrency bounds the seasons processed at once by RunAll.
	Concurrency int
	// UnmappedLimit caps the unmapped team names kept in a summary.
	UnmappedLimit int
	// LeaderCount is the length of each efficiency leader list.
	LeaderCount int
	// Snapshots enables the JSON snapshot files.
	Snapshots bool
	// OutputDir is the snapshot root.
	OutputDir string
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.UnmappedLimit <= 0 {
		o.UnmappedLimit = 20
	}
	if o.LeaderCount <= 0 {
		o.LeaderCount = 5
	}
	if o.OutputDir == "" {
		o.OutputDir = "data/player"
	}
	return o
}

// Runner executes ingest stages against a source and a store.
type Runner struct {
	src       Source
	store     store.Store
	opts      Options
	resolver  *depth.Resolver
	priors    *depth.PriorsDeriver
	calc      *projection.Calculator
	snapshots *SnapshotWriter
}

// New builds a Runner. The tuning is validated up front.
func New(src Source, st store.Store, t *tuning.Tuning, opts Options) (*Runner, error) {
	if t == nil {
		t = tuning.Default()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	priors, err := depth.NewPriorsDeriver(t)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	r := &Runner{
		src:      src,
		store:    st,
		opts:     opts,
		resolver: depth.NewResolver(t.Precedence),
		priors:   priors,
		calc:     projection.NewCalculator(t.Projection),
	}
	if opts.Snapshots {
		r.snapshots = NewSnapshotWriter(opts.OutputDir)
	}
	return r, nil
}

// tracked runs fn inside an ingest-run log row. A failure marks the row
// failed with the error text; the original error is returned.
func (r *Runner) tracked(ctx context.Context, season int, stage model.IngestStage, fn func() (map[string]any, error)) error {
	log := zap.L().With(zap.Int("season", season), zap.String("stage", string(stage)))

	run, err := r.store.StartRun(ctx, season, stage)
	if err != nil {
		return eris.Wrapf(err, "pipeline: start %s run", stage)
	}

	summary, err := fn()
	if err != nil {
		log.Error("pipeline: stage failed", zap.String("run_id", run.ID), zap.Error(err))
		// The caller's context may be cancelled; the failure still gets recorded.
		if ferr := r.store.FailRun(context.WithoutCancel(ctx), run.ID, err.Error()); ferr != nil {
			log.Warn("pipeline: failed to record run failure", zap.Error(ferr))
		}
		return err
	}

	if err := r.store.CompleteRun(ctx, run.ID, summary); err != nil {
		return eris.Wrapf(err, "pipeline: complete %s run", stage)
	}
	log.Info("pipeline: stage complete", zap.String("run_id", run.ID))
	return nil
}

// RunAll runs both stages for each season. Seasons are independent and run
// concurrently up to Options.Concurrency; the first failure cancels the rest.
func (r *Runner) RunAll(ctx context.Context, seasons []int) ([]*Summary, error) {
	out := make([]*Summary, len(seasons))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, season := range seasons {
		g.Go(func() error {
			s := &Summary{Season: season}
			d, err := r.RunDepth(gCtx, season)
			if err != nil {
				return eris.Wrapf(err, "pipeline: season %d", season)
			}
			s.Depth = d
			e, err := r.RunEfficiency(gCtx, season)
			if err != nil {
				return eris.Wrapf(err, "pipeline: season %d", season)
			}
			s.Efficiency = e
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
