// Package runner is the execution engine: it selects scenarios by tag
// expression and name, dispatches them over a bounded worker pool,
// drives the per-scenario state machine with retries, and aggregates
// results while streaming events to the configured formatters.
package runner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tomatool/cuke/errors"
	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/formatter"
	"github.com/tomatool/cuke/result"
	"github.com/tomatool/cuke/steps"
	"github.com/tomatool/cuke/tags"
)

// DefaultMaxConcurrent is the worker pool size used when concurrency is
// enabled without an explicit limit.
const DefaultMaxConcurrent = 4

// maxRetries caps the per-scenario retry count.
const maxRetries = 100

// DefaultSkipTags mark scenarios that are excluded before any hook runs.
var DefaultSkipTags = []string{"@skip", "@ignore"}

// Options is the immutable configuration snapshot of one run.
type Options struct {
	// Parallel enables the bounded-concurrency scheduler.
	Parallel bool
	// MaxConcurrent limits in-flight scenario attempts when Parallel.
	MaxConcurrent int
	// Retries is the global retry count; @retry(N) tags override it.
	Retries int
	// Tags filters scenarios by boolean tag expression.
	Tags string
	// NameFilter keeps only scenarios whose name contains the substring.
	NameFilter string
	// DryRun validates step wiring without invoking handlers or hooks.
	DryRun bool
	// SkipTags short-circuit a scenario before any hook fires.
	SkipTags []string
	// NewWorld builds the scenario-scoped state for each attempt.
	NewWorld func() any
	// Sinks receive execution events.
	Sinks []formatter.Formatter
}

func (o Options) normalized() Options {
	if o.Retries < 0 {
		o.Retries = 0
	}
	if !o.Parallel {
		o.MaxConcurrent = 1
	} else if o.MaxConcurrent < 1 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.SkipTags == nil {
		o.SkipTags = DefaultSkipTags
	}
	return o
}

// Runner executes scenarios against a step registry.
type Runner struct {
	reg   *steps.Registry
	hooks steps.Hooks
	opts  Options

	tagExpr *tags.Expression
	mux     *formatter.Mux
}

// New validates the options and builds a runner. A malformed tag
// expression is fatal here, before any scenario runs.
func New(reg *steps.Registry, opts Options) (*Runner, error) {
	opts = opts.normalized()

	expr, err := tags.Parse(opts.Tags)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	return &Runner{
		reg:     reg,
		hooks:   reg.Hooks(),
		opts:    opts,
		tagExpr: expr,
		mux:     formatter.NewMux(opts.Sinks...),
	}, nil
}

type unit struct {
	fi, si int
	sc     *feature.Scenario
}

// Run executes the selected scenarios and returns the aggregated
// result. Scenario failures do not surface as an error here; only
// engine-level failures (a failing before-run hook) do.
func (r *Runner) Run(ctx context.Context, features []*feature.Feature) (*result.RunResult, error) {
	started := time.Now()

	selected, frames := r.selectScenarios(features)
	res := &result.RunResult{
		ID:        uuid.NewString(),
		StartedAt: started,
	}

	log.Info().
		Int("scenarios", len(selected)).
		Bool("parallel", r.opts.Parallel).
		Int("max_concurrent", r.opts.MaxConcurrent).
		Bool("dry_run", r.opts.DryRun).
		Msg("run starting")

	r.mux.RunStarted(formatter.RunMeta{
		ID:        res.ID,
		StartedAt: started,
		Scenarios: len(selected),
		DryRun:    r.opts.DryRun,
	})

	var runErr error
	if !r.opts.DryRun {
		runErr = r.runBeforeRunHooks(ctx)
	}

	if runErr == nil {
		r.dispatch(ctx, selected, frames)
	}

	if !r.opts.DryRun {
		for _, h := range r.hooks.AfterRun {
			if err := h(ctx); err != nil {
				log.Warn().Err(err).Msg("after_run hook failed")
			}
		}
	}

	for _, f := range frames {
		res.Features = append(res.Features, f.res)
	}
	res.Collect()
	res.Duration = time.Since(started)

	r.mux.RunFinished(res)

	return res, runErr
}

func (r *Runner) runBeforeRunHooks(ctx context.Context) error {
	for _, h := range r.hooks.BeforeRun {
		if err := h(ctx); err != nil {
			// A failing before-run hook aborts dispatch: no scenario
			// executes, after-run hooks still fire.
			return &errors.HookError{Phase: errors.BeforeRun, Err: err}
		}
	}
	return nil
}

// frame tracks one selected feature through the run so feature events
// fire exactly once even when its scenarios complete out of order.
type frame struct {
	src *feature.Feature
	res *result.FeatureResult

	mu        sync.Mutex
	started   bool
	remaining int
}

func (r *Runner) selectScenarios(features []*feature.Feature) ([]*unit, []*frame) {
	var (
		units  []*unit
		frames []*frame
	)
	for _, f := range features {
		var kept []*feature.Scenario
		for _, sc := range f.Scenarios {
			if !r.tagExpr.Match(sc.Tags) {
				continue
			}
			if r.opts.NameFilter != "" && !strings.Contains(sc.Name, r.opts.NameFilter) {
				continue
			}
			kept = append(kept, sc)
		}
		if len(kept) == 0 {
			continue
		}
		fr := &frame{
			src: f,
			res: &result.FeatureResult{
				Name:      f.Name,
				URI:       f.URI,
				Scenarios: make([]*result.ScenarioResult, len(kept)),
			},
			remaining: len(kept),
		}
		fi := len(frames)
		frames = append(frames, fr)
		for si, sc := range kept {
			units = append(units, &unit{fi: fi, si: si, sc: sc})
		}
	}
	return units, frames
}

// dispatch fans the selected scenarios out over the worker pool and
// waits for completion. Sequential mode is the degenerate pool of one.
func (r *Runner) dispatch(ctx context.Context, units []*unit, frames []*frame) {
	jobs := make(chan *unit)

	var wg sync.WaitGroup
	for w := 0; w < r.opts.MaxConcurrent; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				r.runScenario(ctx, u, frames[u.fi])
			}
		}()
	}

	for _, u := range units {
		jobs <- u
	}
	close(jobs)
	wg.Wait()
}

// runScenario owns one scenario end to end: skip-tag short-circuit,
// the retry loop, and event emission. Retries are slot-exclusive: the
// worker finishes every attempt before picking up the next scenario.
func (r *Runner) runScenario(ctx context.Context, u *unit, fr *frame) {
	r.featureStarted(fr)

	sc := u.sc

	var res *result.ScenarioResult
	switch {
	case sc.HasTag(r.opts.SkipTags...):
		res = r.skipScenario(sc, "skip tag")
	case ctx.Err() != nil:
		res = r.skipScenario(sc, "run cancelled")
	default:
		retries := r.effectiveRetries(sc)
		for attempt := 0; ; attempt++ {
			res = r.attempt(ctx, sc, attempt)
			willRetry := res.Status == result.Failed && attempt < retries
			// Sinks read the result from the finish event, so the attempt
			// bookkeeping must be in place before it fires.
			res.Attempts = attempt + 1
			res.Retried = attempt > 0
			r.mux.ScenarioFinished(res, attempt, willRetry)
			if !willRetry {
				break
			}
			log.Debug().Str("scenario", sc.Name).Int("attempt", attempt).Msg("scenario failed, retrying")
		}
	}

	fr.res.Scenarios[u.si] = res
	r.featureDone(fr)
}

// skipScenario reports every step Skipped without running any hook and
// without retrying.
func (r *Runner) skipScenario(sc *feature.Scenario, reason string) *result.ScenarioResult {
	log.Debug().Str("scenario", sc.Name).Str("reason", reason).Msg("skipping scenario")

	r.mux.ScenarioStarted(sc, 0)
	res := &result.ScenarioResult{
		Name:     sc.Name,
		URI:      sc.URI,
		Line:     sc.Line,
		Tags:     sc.Tags,
		Status:   result.Skipped,
		Attempts: 1,
	}
	for _, st := range sc.Steps {
		sr := result.StepResult{
			Keyword: st.KeywordText,
			Text:    st.Text,
			Status:  result.Skipped,
		}
		res.Steps = append(res.Steps, sr)
		r.mux.StepFinished(sc, sr)
	}
	r.mux.ScenarioFinished(res, 0, false)
	return res
}

var retryTag = regexp.MustCompile(`^@retry\((\d+)\)$`)

// effectiveRetries is the scenario's @retry(N) tag value when present,
// else the global option, clamped to [0, 100].
func (r *Runner) effectiveRetries(sc *feature.Scenario) int {
	retries := r.opts.Retries
	for _, t := range sc.Tags {
		if m := retryTag.FindStringSubmatch(t); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				retries = n
			}
		}
	}
	if retries < 0 {
		retries = 0
	}
	if retries > maxRetries {
		retries = maxRetries
	}
	return retries
}

func (r *Runner) featureStarted(fr *frame) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.started {
		return
	}
	fr.started = true
	r.mux.FeatureStarted(fr.src)
}

func (r *Runner) featureDone(fr *frame) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.remaining--
	if fr.remaining > 0 {
		return
	}
	fr.res.Status = result.Passed
	for _, sc := range fr.res.Scenarios {
		fr.res.Status = result.Worst(fr.res.Status, sc.Status)
		fr.res.Duration += sc.Duration
	}
	r.mux.FeatureFinished(fr.res)
}

// AggregateError converts a non-clean run result into the raised
// aggregate carrying the full per-scenario failure detail. It returns
// nil for a clean run.
func AggregateError(res *result.RunResult) error {
	var offenders []*errors.ScenarioError
	for _, f := range res.Features {
		for _, sc := range f.Scenarios {
			if sc == nil {
				continue
			}
			switch sc.Status {
			case result.Failed, result.Undefined, result.Pending:
			default:
				continue
			}
			se := &errors.ScenarioError{Scenario: sc.Name, URI: sc.URI}
			if sc.Err != nil {
				se.Errs = append(se.Errs, sc.Err)
			}
			for _, st := range sc.Steps {
				if st.Err != nil {
					se.Errs = append(se.Errs, st.Err)
				}
			}
			offenders = append(offenders, se)
		}
	}
	if len(offenders) == 0 {
		return nil
	}
	return &errors.RunError{Scenarios: offenders}
}
