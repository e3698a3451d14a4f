package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// ModelInputs is the per-season document holding string-encoded JSON payloads.
// Empty fields have not been written yet.
type ModelInputs struct {
	Season             int       `json:"season"`
	DepthChartJSON     string    `json:"depth_chart_json,omitempty"`
	UsagePriorsJSON    string    `json:"usage_priors_json,omitempty"`
	TeamEfficiencyJSON string    `json:"team_efficiency_json,omitempty"`
	PaceEstimatesJSON  string    `json:"pace_estimates_json,omitempty"`
	OpponentGradesJSON string    `json:"opponent_grades_by_pos,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DepthChart decodes the stored depth chart. An empty field yields an empty payload.
func (m *ModelInputs) DepthChart() (DepthChartPayload, error) {
	out := DepthChartPayload{}
	if m == nil || m.DepthChartJSON == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(m.DepthChartJSON), &out); err != nil {
		return nil, eris.Wrap(err, "model: decode depth_chart_json")
	}
	return out, nil
}

// ModelInputsPatch carries the fields one stage writes. Nil fields are left
// untouched. OpponentGradesJSON is only written when the document has none.
type ModelInputsPatch struct {
	DepthChartJSON     *string
	UsagePriorsJSON    *string
	TeamEfficiencyJSON *string
	PaceEstimatesJSON  *string
	OpponentGradesJSON *string
}

// EncodeField marshals v for storage in a document field.
func EncodeField(v any) (*string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "model: encode field")
	}
	s := string(b)
	return &s, nil
}

// IngestStage names a pipeline stage recorded in the run log.
type IngestStage string

const (
	StageDepth      IngestStage = "depth"
	StageEfficiency IngestStage = "efficiency"
)

// IngestStatus is the state of an ingest run.
type IngestStatus string

const (
	IngestRunning  IngestStatus = "running"
	IngestComplete IngestStatus = "complete"
	IngestFailed   IngestStatus = "failed"
)

// IngestRun is one row of the ingest run log.
type IngestRun struct {
	ID          string         `json:"id"`
	Season      int            `json:"season"`
	Stage       IngestStage    `json:"stage"`
	Status      IngestStatus   `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Summary     map[string]any `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
}
