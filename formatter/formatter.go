// Package formatter defines the event contract renderers subscribe to
// and ships the reference renderers: a colored console report, an
// NDJSON event stream, and a cucumber-messages envelope stream.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
)

// RunMeta describes a starting run.
type RunMeta struct {
	ID        string
	StartedAt time.Time
	Scenarios int
	DryRun    bool
}

// Formatter receives execution events in strict chronological order per
// scenario attempt. When concurrency is enabled the callbacks may fire
// from whichever worker goroutine is executing; delivery through the
// runner is serialized, so implementations do not need their own locks.
type Formatter interface {
	RunStarted(meta RunMeta)
	FeatureStarted(f *feature.Feature)
	ScenarioStarted(sc *feature.Scenario, attempt int)
	StepFinished(sc *feature.Scenario, step result.StepResult)
	ScenarioFinished(res *result.ScenarioResult, attempt int, willRetry bool)
	FeatureFinished(res *result.FeatureResult)
	RunFinished(res *result.RunResult)
}

// Mux fans events out to a list of formatters, serializing delivery so
// each sink observes one event at a time even under concurrency.
type Mux struct {
	mu    sync.Mutex
	sinks []Formatter
}

// NewMux wraps the given sinks.
func NewMux(sinks ...Formatter) *Mux {
	return &Mux{sinks: sinks}
}

func (m *Mux) RunStarted(meta RunMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.RunStarted(meta)
	}
}

func (m *Mux) FeatureStarted(f *feature.Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.FeatureStarted(f)
	}
}

func (m *Mux) ScenarioStarted(sc *feature.Scenario, attempt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.ScenarioStarted(sc, attempt)
	}
}

func (m *Mux) StepFinished(sc *feature.Scenario, step result.StepResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.StepFinished(sc, step)
	}
}

func (m *Mux) ScenarioFinished(res *result.ScenarioResult, attempt int, willRetry bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.ScenarioFinished(res, attempt, willRetry)
	}
}

func (m *Mux) FeatureFinished(res *result.FeatureResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.FeatureFinished(res)
	}
}

func (m *Mux) RunFinished(res *result.RunResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.RunFinished(res)
	}
}

// Factory builds a named formatter writing to out.
type Factory func(out io.Writer) Formatter

var (
	registryMu sync.Mutex
	registry   = make(map[string]registration)
)

type registration struct {
	description string
	factory     Factory
}

// Register makes a formatter available by name. Reference formatters
// self-register from their init functions.
func Register(name, description string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = registration{description, f}
}

// Find returns the factory registered under name.
func Find(name string) (Factory, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	reg, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("formatter: unknown format %q (available: %v)", name, names())
	}
	return reg.factory, nil
}

func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
