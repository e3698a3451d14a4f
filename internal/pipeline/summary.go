package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/sells-group/model-inputs-cli/internal/efficiency"
)

// DepthSummary reports the outcome of a depth run.
type DepthSummary struct {
	Season        int      `json:"season"`
	Records       int      `json:"records"`
	Teams         int      `json:"teams"`
	Positions     int      `json:"positions"`
	Players       int      `json:"players"`
	Conflicts     int      `json:"conflicts"`
	Dropped       int      `json:"dropped"`
	Unmapped      []string `json:"unmapped,omitempty"`
	UnmappedTotal int      `json:"unmapped_total"`
	Overrides     int      `json:"overrides"`
	StoredEntries int64    `json:"stored_entries"`
}

// Fields returns the summary as run-log metadata.
func (s *DepthSummary) Fields() map[string]any {
	return map[string]any{
		"records":        s.Records,
		"teams":          s.Teams,
		"positions":      s.Positions,
		"players":        s.Players,
		"conflicts":      s.Conflicts,
		"dropped":        s.Dropped,
		"unmapped_total": s.UnmappedTotal,
		"overrides":      s.Overrides,
		"stored_entries": s.StoredEntries,
	}
}

// EfficiencySummary reports the outcome of an efficiency run.
type EfficiencySummary struct {
	Season        int                `json:"season"`
	Teams         int                `json:"teams"`
	SPPlusRows    int                `json:"sp_plus_rows"`
	FEIRows       int                `json:"fei_rows"`
	PaceRows      int                `json:"pace_rows"`
	Dropped       int                `json:"dropped"`
	Unmapped      []string           `json:"unmapped,omitempty"`
	UnmappedTotal int                `json:"unmapped_total"`
	Leaders       efficiency.Leaders `json:"leaders"`
}

// Fields returns the summary as run-log metadata.
func (s *EfficiencySummary) Fields() map[string]any {
	return map[string]any{
		"teams":          s.Teams,
		"sp_plus_rows":   s.SPPlusRows,
		"fei_rows":       s.FEIRows,
		"pace_rows":      s.PaceRows,
		"dropped":        s.Dropped,
		"unmapped_total": s.UnmappedTotal,
	}
}

// Summary groups the stage summaries for one season. Either stage may be nil.
type Summary struct {
	Season     int                `json:"season"`
	Depth      *DepthSummary      `json:"depth,omitempty"`
	Efficiency *EfficiencySummary `json:"efficiency,omitempty"`
}

// WriteText prints the console summary.
func (s *Summary) WriteText(w io.Writer) {
	if s.Depth != nil {
		s.Depth.WriteText(w)
	}
	if s.Efficiency != nil {
		s.Efficiency.WriteText(w)
	}
}

// WriteText prints the depth summary.
func (s *DepthSummary) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Depth charts %d: teams=%d positions=%d players=%d conflicts=%d dropped=%d\n",
		s.Season, s.Teams, s.Positions, s.Players, s.Conflicts, s.Dropped)
	writeUnmapped(w, s.Unmapped, s.UnmappedTotal)
}

// WriteText prints the efficiency summary with its leader lists.
func (s *EfficiencySummary) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Team efficiency %d: teams=%d (sp+=%d fei=%d pace=%d) dropped=%d\n",
		s.Season, s.Teams, s.SPPlusRows, s.FEIRows, s.PaceRows, s.Dropped)
	writeUnmapped(w, s.Unmapped, s.UnmappedTotal)
	writeLeaders(w, "Top offense", s.Leaders.TopOffense)
	writeLeaders(w, "Bottom offense", s.Leaders.BottomOffense)
	writeLeaders(w, "Top defense", s.Leaders.TopDefense)
}

func writeUnmapped(w io.Writer, names []string, total int) {
	if total == 0 {
		return
	}
	fmt.Fprintf(w, "  unmapped teams (%d): %s", total, strings.Join(names, ", "))
	if more := total - len(names); more > 0 {
		fmt.Fprintf(w, " ... and %d more", more)
	}
	fmt.Fprintln(w)
}

func writeLeaders(w io.Writer, label string, teams []efficiency.TeamZ) {
	if len(teams) == 0 {
		return
	}
	parts := make([]string, len(teams))
	for i, t := range teams {
		parts[i] = fmt.Sprintf("%s (%.3f)", t.TeamID, t.Z)
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(parts, ", "))
}
