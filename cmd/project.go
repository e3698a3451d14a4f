package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/projection"
)

// projectOpts are the parsed project flags.
type projectOpts struct {
	Season   int
	Format   string
	Limit    int
	Position string
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project players for a season using the stored depth chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseProjectOpts(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate("project"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r, err := newRunner(cfg, st, false)
		if err != nil {
			return err
		}

		projections, err := r.Project(ctx, opts.Season)
		if err != nil {
			return err
		}
		projections = projection.Filter(projections, opts.Position, opts.Limit)

		if opts.Format == "json" {
			return writeProjectionsJSON(os.Stdout, projections)
		}
		if len(projections) == 0 {
			fmt.Fprintln(os.Stderr, "No projections.")
			return nil
		}
		formatProjections(os.Stdout, projections)
		return nil
	},
}

func init() {
	projectCmd.Flags().Int("season", 0, "season year to project")
	projectCmd.Flags().String("format", "table", "output format: table or json")
	projectCmd.Flags().Int("limit", 0, "maximum number of players (0 = all)")
	projectCmd.Flags().String("position", "", "only this position (QB, RB, WR, TE, K)")
	_ = projectCmd.MarkFlagRequired("season")
	rootCmd.AddCommand(projectCmd)
}

// parseProjectOpts extracts projectOpts from the cobra command flags.
func parseProjectOpts(cmd *cobra.Command) (projectOpts, error) {
	season, _ := cmd.Flags().GetInt("season")
	format, _ := cmd.Flags().GetString("format")
	limit, _ := cmd.Flags().GetInt("limit")
	position, _ := cmd.Flags().GetString("position")

	opts := projectOpts{
		Season:   season,
		Format:   strings.ToLower(strings.TrimSpace(format)),
		Limit:    limit,
		Position: strings.ToUpper(strings.TrimSpace(position)),
	}
	if opts.Season <= 0 {
		return projectOpts{}, eris.Errorf("invalid season %d", season)
	}
	switch opts.Format {
	case "", "table":
		opts.Format = "table"
	case "json":
	default:
		return projectOpts{}, eris.Errorf("unknown format %q (want table or json)", format)
	}
	if opts.Limit < 0 {
		return projectOpts{}, eris.New("limit must be >= 0")
	}
	return opts, nil
}

func writeProjectionsJSON(out io.Writer, projections []model.PlayerProjection) error {
	if projections == nil {
		projections = []model.PlayerProjection{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(projections), "encode projections")
}

func formatProjections(out io.Writer, projections []model.PlayerProjection) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLAYER\tTEAM\tPOS\tDEPTH\tRATING\tPOINTS\tADJ\tADP\tDRAFT")
	_, _ = fmt.Fprintln(w, "------\t----\t---\t-----\t------\t------\t---\t---\t-----")

	for _, p := range projections {
		depthRank := "-"
		if p.DepthRank > 0 {
			depthRank = fmt.Sprintf("%d", p.DepthRank)
		}
		draft := ""
		if p.Draftable {
			draft = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			p.Name,
			p.Team,
			p.Position,
			depthRank,
			p.Rating,
			p.ProjectedPoints,
			p.AdjustedPoints,
			p.ADP,
			draft,
		)
	}
	_ = w.Flush()
}
