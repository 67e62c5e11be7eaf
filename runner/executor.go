package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tomatool/cuke/errors"
	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
	"github.com/tomatool/cuke/steps"
)

// attempt executes one scenario attempt: case hooks, then each step in
// source order through its own before/execute/after cycle. A brand-new
// world is built for every attempt, including every retry.
func (r *Runner) attempt(ctx context.Context, sc *feature.Scenario, attempt int) *result.ScenarioResult {
	started := time.Now()

	var world any
	if r.opts.NewWorld != nil && !r.opts.DryRun {
		world = r.opts.NewWorld()
	}
	c := steps.NewCtx(ctx, world, sc, attempt)

	r.mux.ScenarioStarted(sc, attempt)

	res := &result.ScenarioResult{
		Name: sc.Name,
		URI:  sc.URI,
		Line: sc.Line,
		Tags: sc.Tags,
	}

	var caseFailure error
	if !r.opts.DryRun {
		for _, h := range r.hooks.BeforeCase {
			if err := h(c); err != nil {
				caseFailure = &errors.HookError{Phase: errors.BeforeCase, Scenario: sc.Name, Err: err}
				log.Debug().Str("scenario", sc.Name).Err(err).Msg("before_case hook failed")
				break
			}
		}
	}

	var failure error
	aborted := false
	for _, st := range sc.Steps {
		var sr result.StepResult
		switch {
		case r.opts.DryRun:
			sr = r.dryRunStep(st)
		case caseFailure != nil:
			// A failed before-case hook skips the steps without firing
			// their hooks.
			sr = result.StepResult{Keyword: st.KeywordText, Text: st.Text, Status: result.Skipped}
		default:
			sr = r.executeStep(c, st, aborted)
		}

		if failure == nil && sr.Err != nil {
			failure = sr.Err
		}
		if sr.Status == result.Failed || sr.Status == result.Undefined || sr.Status == result.Pending {
			aborted = true
		}

		res.Steps = append(res.Steps, sr)
		r.mux.StepFinished(sc, sr)
	}

	var afterFailure error
	if !r.opts.DryRun {
		detail := caseFailure
		if detail == nil {
			detail = failure
		}
		for _, h := range r.hooks.AfterCase {
			if err := h(c, detail); err != nil {
				log.Warn().Str("scenario", sc.Name).Err(err).Msg("after_case hook failed")
				if afterFailure == nil {
					afterFailure = &errors.HookError{Phase: errors.AfterCase, Scenario: sc.Name, Err: err}
				}
			}
		}
	}

	switch {
	case caseFailure != nil:
		res.Status = result.Failed
		res.Err = caseFailure
	default:
		res.Status = result.StepsStatus(res.Steps)
	}
	if afterFailure != nil {
		res.Status = result.Worst(res.Status, result.Failed)
		if res.Err == nil {
			res.Err = afterFailure
		}
	}
	res.Duration = time.Since(started)
	return res
}

// dryRunStep validates matching only: no handler, no hook, no side
// effect. Matched steps come back Skipped, unmatched ones Undefined
// with snippet and suggestions.
func (r *Runner) dryRunStep(st *feature.Step) result.StepResult {
	sr := result.StepResult{Keyword: st.KeywordText, Text: st.Text}
	m, err := r.reg.Find(st.Text, st.Keyword)
	if err == nil && m != nil {
		sr.Status = result.Skipped
		return sr
	}
	sr.Status = result.Undefined
	sr.Err = r.undefined(st)
	return sr
}

// executeStep runs one step through its hooks and handler. When skip is
// set (an earlier step failed) the handler is not invoked but the step
// hooks still fire, so diagnostic hooks stay reliable.
func (r *Runner) executeStep(c *steps.Ctx, st *feature.Step, skip bool) result.StepResult {
	sr := result.StepResult{Keyword: st.KeywordText, Text: st.Text}
	started := time.Now()
	attBefore := len(c.Attachments())

	var stepErr error
	for _, h := range r.hooks.BeforeStep {
		if err := h(c, st); err != nil {
			stepErr = &errors.HookError{Phase: errors.BeforeStep, Scenario: c.Scenario.Name, Step: st.Text, Err: err}
			break
		}
	}

	switch {
	case stepErr != nil:
		sr.Status = result.Failed
	case skip:
		sr.Status = result.Skipped
	default:
		m, err := r.reg.Find(st.Text, st.Keyword)
		switch {
		case err != nil:
			sr.Status = result.Failed
			stepErr = &errors.StepError{Keyword: st.KeywordText, Text: st.Text, Err: err}
		case m == nil:
			sr.Status = result.Undefined
			stepErr = r.undefined(st)
		default:
			err := invoke(c, m)
			switch {
			case err == nil:
				sr.Status = result.Passed
			case stderrors.Is(err, errors.ErrPending):
				sr.Status = result.Pending
				stepErr = err
			default:
				sr.Status = result.Failed
				stepErr = &errors.StepError{Keyword: st.KeywordText, Text: st.Text, Err: err}
			}
		}
	}

	for _, h := range r.hooks.AfterStep {
		if err := h(c, st, stepErr); err != nil {
			log.Warn().Str("step", st.Text).Err(err).Msg("after_step hook failed")
			if stepErr == nil {
				stepErr = &errors.HookError{Phase: errors.AfterStep, Scenario: c.Scenario.Name, Step: st.Text, Err: err}
				sr.Status = result.Failed
			}
		}
	}

	sr.Err = stepErr
	sr.Duration = time.Since(started)
	sr.Attachments = c.Attachments()[attBefore:]
	return sr
}

func (r *Runner) undefined(st *feature.Step) *errors.UndefinedError {
	return &errors.UndefinedError{
		Keyword:     st.KeywordText,
		Text:        st.Text,
		Snippet:     r.reg.Snippet(st),
		Suggestions: steps.Suggest(st.Text, r.reg.Patterns(), 3),
	}
}

// invoke calls the handler, converting a panic into a step failure so
// one bad handler cannot take down the run.
func invoke(c *steps.Ctx, m *steps.Match) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return m.Def.Handler(c, m.Args...)
}
