package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestStepErrorUnwraps(t *testing.T) {
	cause := stderrors.New("db down")
	err := &StepError{Keyword: "Given", Text: "a database", Err: cause}

	if !stderrors.Is(err, cause) {
		t.Error("StepError should unwrap to its cause")
	}
}

func TestUndefinedErrorMessage(t *testing.T) {
	err := &UndefinedError{Text: "I add 2 and 3"}
	if got := err.Error(); got != `step "I add 2 and 3" is not defined` {
		t.Errorf("unexpected message: %s", got)
	}

	err.Suggestions = []string{"I add {int} and {int}"}
	want := `step "I add 2 and 3" is not defined (did you mean "I add {int} and {int}"?)`
	if got := err.Error(); got != want {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestHookErrorMessageDetail(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		err  *HookError
		want string
	}{
		{&HookError{Phase: BeforeRun, Err: cause}, "before_run hook failed: boom"},
		{&HookError{Phase: BeforeCase, Scenario: "addition", Err: cause}, `before_case hook failed on scenario "addition": boom`},
		{&HookError{Phase: AfterStep, Scenario: "addition", Step: "a step", Err: cause}, `after_step hook failed on step "a step": boom`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestRunErrorCarriesEveryOffender(t *testing.T) {
	cause := fmt.Errorf("expected 5, got 6")
	run := &RunError{Scenarios: []*ScenarioError{
		{Scenario: "addition", URI: "calc.feature", Errs: []error{cause}},
		{Scenario: "subtraction", URI: "calc.feature"},
	}}

	if !stderrors.Is(run, cause) {
		t.Error("RunError should unwrap through ScenarioError to the step cause")
	}

	var se *ScenarioError
	if !stderrors.As(run, &se) {
		t.Fatal("RunError should expose ScenarioError via As")
	}

	msg := run.Error()
	for _, want := range []string{"2 scenario(s)", "addition", "subtraction"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %s", want, msg)
		}
	}
}
