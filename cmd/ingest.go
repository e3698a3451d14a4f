package main

import (
	"context"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/pipeline"
)

// ingestOpts are the parsed ingest flags.
type ingestOpts struct {
	Seasons   []int
	Snapshots bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build model inputs from provider extracts",
}

var ingestDepthCmd = &cobra.Command{
	Use:   "depth",
	Short: "Merge depth charts and derive usage priors for a season",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, func(ctx context.Context, r *pipeline.Runner, season int) (*pipeline.Summary, error) {
			d, err := r.RunDepth(ctx, season)
			if err != nil {
				return nil, err
			}
			return &pipeline.Summary{Season: season, Depth: d}, nil
		})
	},
}

var ingestEfficiencyCmd = &cobra.Command{
	Use:   "efficiency",
	Short: "Merge team efficiency ratings and derive pace and opponent grades for a season",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, func(ctx context.Context, r *pipeline.Runner, season int) (*pipeline.Summary, error) {
			e, err := r.RunEfficiency(ctx, season)
			if err != nil {
				return nil, err
			}
			return &pipeline.Summary{Season: season, Efficiency: e}, nil
		})
	},
}

var ingestAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run both stages for one or more seasons",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseIngestOpts(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r, err := newRunner(cfg, st, opts.Snapshots)
		if err != nil {
			return err
		}

		summaries, err := r.RunAll(ctx, opts.Seasons)
		for _, s := range summaries {
			if s != nil {
				s.WriteText(os.Stdout)
			}
		}
		return err
	},
}

// runIngest runs one stage for the single --season flag.
func runIngest(cmd *cobra.Command, stage func(context.Context, *pipeline.Runner, int) (*pipeline.Summary, error)) error {
	opts, err := parseIngestOpts(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate("ingest"); err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	r, err := newRunner(cfg, st, opts.Snapshots)
	if err != nil {
		return err
	}

	season := opts.Seasons[0]
	s, err := stage(ctx, r, season)
	if err != nil {
		return err
	}
	s.WriteText(os.Stdout)
	zap.L().Info("ingest complete", zap.Int("season", season), zap.String("stage", cmd.Name()))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{ingestDepthCmd, ingestEfficiencyCmd} {
		c.Flags().Int("season", 0, "season year to ingest")
		_ = c.MarkFlagRequired("season")
	}
	ingestAllCmd.Flags().IntSlice("seasons", nil, "comma-separated season years")
	_ = ingestAllCmd.MarkFlagRequired("seasons")

	ingestCmd.PersistentFlags().Bool("no-snapshots", false, "skip writing JSON snapshot files")

	ingestCmd.AddCommand(ingestDepthCmd, ingestEfficiencyCmd, ingestAllCmd)
	rootCmd.AddCommand(ingestCmd)
}

// parseIngestOpts reads --season or --seasons and --no-snapshots. Seasons
// are de-duplicated and sorted. Snapshots default to the ingest.snapshots
// setting when config is loaded.
func parseIngestOpts(cmd *cobra.Command) (ingestOpts, error) {
	var seasons []int
	if f := cmd.Flags().Lookup("seasons"); f != nil {
		seasons, _ = cmd.Flags().GetIntSlice("seasons")
	} else {
		s, _ := cmd.Flags().GetInt("season")
		seasons = []int{s}
	}
	noSnapshots, _ := cmd.Flags().GetBool("no-snapshots")

	if len(seasons) == 0 {
		return ingestOpts{}, eris.New("at least one season is required")
	}
	seen := make(map[int]bool, len(seasons))
	uniq := make([]int, 0, len(seasons))
	for _, s := range seasons {
		if s <= 0 {
			return ingestOpts{}, eris.Errorf("invalid season %d", s)
		}
		if !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	sort.Ints(uniq)

	snapshots := true
	if cfg != nil {
		snapshots = cfg.Ingest.Snapshots
	}
	return ingestOpts{Seasons: uniq, Snapshots: snapshots && !noSnapshots}, nil
}
