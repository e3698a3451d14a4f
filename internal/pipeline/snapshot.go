package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/model-inputs-cli/internal/efficiency"
	"github.com/sells-group/model-inputs-cli/internal/model"
)

// SnapshotWriter writes indented JSON snapshots under a root directory.
type SnapshotWriter struct {
	root string
}

// NewSnapshotWriter creates a SnapshotWriter rooted at root.
func NewSnapshotWriter(root string) *SnapshotWriter {
	return &SnapshotWriter{root: root}
}

// Depth writes the merged entries, depth chart and usage priors for season.
func (w *SnapshotWriter) Depth(season int, merged []model.CanonicalDepthEntry, chart model.DepthChartPayload, priors model.UsagePriorsPayload) error {
	if merged == nil {
		merged = []model.CanonicalDepthEntry{}
	}
	files := []struct {
		rel string
		v   any
	}{
		{filepath.Join("raw", "depth", fmt.Sprintf("merged_%d.json", season)), merged},
		{filepath.Join("processed", "depth", fmt.Sprintf("depth_chart_%d.json", season)), chart},
		{filepath.Join("processed", "depth", fmt.Sprintf("usage_priors_%d.json", season)), priors},
	}
	for _, f := range files {
		if err := w.write(f.rel, f.v); err != nil {
			return err
		}
	}
	return nil
}

// Efficiency writes the team efficiency, pace and opponent grade payloads.
func (w *SnapshotWriter) Efficiency(season int, res efficiency.Result) error {
	dir := filepath.Join("processed", "efficiency")
	files := []struct {
		name string
		v    any
	}{
		{fmt.Sprintf("team_efficiency_%d.json", season), res.Teams},
		{fmt.Sprintf("pace_estimates_%d.json", season), res.Pace},
		{fmt.Sprintf("opponent_grades_%d.json", season), res.Grades},
	}
	for _, f := range files {
		if err := w.write(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// write marshals v and replaces rel atomically via a temp file and rename.
func (w *SnapshotWriter) write(rel string, v any) error {
	path := filepath.Join(w.root, rel)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "snapshot: marshal %s", rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "snapshot: mkdir for %s", rel)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return eris.Wrapf(err, "snapshot: temp file for %s", rel)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "snapshot: write %s", rel)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "snapshot: close %s", rel)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "snapshot: rename %s", rel)
	}
	return nil
}
