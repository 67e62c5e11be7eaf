package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
)

func init() {
	Register("events", "newline-delimited JSON event stream", NewEvents)
}

// Event kinds emitted by the events formatter.
const (
	EventRunStart      = "run_start"
	EventFeatureStart  = "feature_start"
	EventScenarioStart = "scenario_start"
	EventStepEnd       = "step_end"
	EventScenarioEnd   = "scenario_end"
	EventFeatureEnd    = "feature_end"
	EventRunEnd        = "run_end"
)

// Event is one structured line of the NDJSON stream.
type Event struct {
	Type     string `json:"type"`
	RunID    string `json:"run_id,omitempty"`
	Feature  string `json:"feature,omitempty"`
	Scenario string `json:"scenario,omitempty"`
	Step     string `json:"step,omitempty"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
	File     string `json:"file,omitempty"`

	Attempt   int  `json:"attempt,omitempty"`
	WillRetry bool `json:"will_retry,omitempty"`

	// Summary fields, only on run_end.
	Total     int `json:"total,omitempty"`
	Passed    int `json:"passed,omitempty"`
	Failed    int `json:"failed,omitempty"`
	Undefined int `json:"undefined,omitempty"`
	Pending   int `json:"pending,omitempty"`
	Skipped   int `json:"skipped,omitempty"`
	Retried   int `json:"retried,omitempty"`
}

// Events writes one JSON object per event, suitable for tooling that
// tails the run.
type Events struct {
	out   io.Writer
	runID string
}

// NewEvents creates the NDJSON formatter.
func NewEvents(out io.Writer) Formatter {
	return &Events{out: out}
}

func (f *Events) emit(e Event) {
	e.RunID = f.runID
	data, _ := json.Marshal(e)
	fmt.Fprintf(f.out, "%s\n", data)
}

func (f *Events) RunStarted(meta RunMeta) {
	f.runID = meta.ID
	f.emit(Event{Type: EventRunStart, Total: meta.Scenarios})
}

func (f *Events) FeatureStarted(ft *feature.Feature) {
	f.emit(Event{Type: EventFeatureStart, Feature: ft.Name, File: ft.URI})
}

func (f *Events) ScenarioStarted(sc *feature.Scenario, attempt int) {
	f.emit(Event{Type: EventScenarioStart, Scenario: sc.Name, File: sc.URI, Attempt: attempt})
}

func (f *Events) StepFinished(sc *feature.Scenario, step result.StepResult) {
	e := Event{
		Type:     EventStepEnd,
		Scenario: sc.Name,
		Step:     step.Text,
		Status:   step.Status.String(),
	}
	if step.Err != nil {
		e.Error = step.Err.Error()
	}
	f.emit(e)
}

func (f *Events) ScenarioFinished(res *result.ScenarioResult, attempt int, willRetry bool) {
	f.emit(Event{
		Type:      EventScenarioEnd,
		Scenario:  res.Name,
		Status:    res.Status.String(),
		Attempt:   attempt,
		WillRetry: willRetry,
	})
}

func (f *Events) FeatureFinished(res *result.FeatureResult) {
	f.emit(Event{Type: EventFeatureEnd, Feature: res.Name, Status: res.Status.String()})
}

func (f *Events) RunFinished(res *result.RunResult) {
	s := res.Summary
	f.emit(Event{
		Type:      EventRunEnd,
		Total:     s.Total,
		Passed:    s.Passed,
		Failed:    s.Failed,
		Undefined: s.Undefined,
		Pending:   s.Pending,
		Skipped:   s.Skipped,
		Retried:   s.Retried,
	})
}
