package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomatool/cuke/errors"
	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
)

func init() {
	Register("console", "human-readable colored report", NewConsole)
}

var (
	stylePassed    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleFailedB   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleSkipped   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleUndefined = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleDim       = lipgloss.NewStyle().Faint(true)
)

// Console renders a colored, indented run report.
type Console struct {
	out io.Writer

	undefined []undefinedStep
}

type undefinedStep struct {
	scenario string
	uri      string
	err      *errors.UndefinedError
}

// NewConsole creates the console formatter.
func NewConsole(out io.Writer) Formatter {
	return &Console{out: out}
}

func (c *Console) RunStarted(meta RunMeta) {
	if meta.DryRun {
		fmt.Fprintln(c.out, styleDim.Render("dry run: validating step wiring, no handlers will execute"))
	}
}

func (c *Console) FeatureStarted(f *feature.Feature) {
	fmt.Fprintf(c.out, "%s %s %s\n", styleHeader.Render("Feature:"), f.Name, styleDim.Render("# "+f.URI))
}

func (c *Console) ScenarioStarted(sc *feature.Scenario, attempt int) {
	if attempt > 0 {
		fmt.Fprintf(c.out, "  %s %s (attempt %d)\n", styleHeader.Render("Scenario:"), sc.Name, attempt+1)
		return
	}
	fmt.Fprintf(c.out, "  %s %s %s\n", styleHeader.Render("Scenario:"), sc.Name, styleDim.Render(fmt.Sprintf("# %s:%d", sc.URI, sc.Line)))
}

func (c *Console) StepFinished(sc *feature.Scenario, step result.StepResult) {
	line := fmt.Sprintf("    %s %s", step.Keyword, step.Text)
	switch step.Status {
	case result.Passed:
		fmt.Fprintln(c.out, stylePassed.Render(line))
	case result.Failed:
		fmt.Fprintln(c.out, styleFailed.Render(line))
		if step.Err != nil {
			fmt.Fprintf(c.out, "      %s\n", styleFailedB.Render(step.Err.Error()))
		}
	case result.Undefined:
		fmt.Fprintln(c.out, styleUndefined.Render(line))
		if undef, ok := step.Err.(*errors.UndefinedError); ok {
			c.undefined = append(c.undefined, undefinedStep{scenario: sc.Name, uri: sc.URI, err: undef})
		}
	case result.Pending:
		fmt.Fprintln(c.out, styleUndefined.Render(line+" (pending)"))
	default:
		fmt.Fprintln(c.out, styleSkipped.Render(line))
	}
}

func (c *Console) ScenarioFinished(res *result.ScenarioResult, attempt int, willRetry bool) {
	if willRetry {
		fmt.Fprintf(c.out, "    %s\n", styleDim.Render(fmt.Sprintf("attempt %d %s, retrying", attempt+1, res.Status)))
	}
}

func (c *Console) FeatureFinished(res *result.FeatureResult) {
	fmt.Fprintln(c.out)
}

func (c *Console) RunFinished(res *result.RunResult) {
	if len(c.undefined) > 0 {
		fmt.Fprintln(c.out, styleHeader.Render("Undefined steps:"))
		for i, u := range c.undefined {
			fmt.Fprintf(c.out, "  %d) %s %s\n", i+1, u.scenario, styleDim.Render("# "+u.uri))
			fmt.Fprintf(c.out, "     %s\n", styleUndefined.Render(u.err.Text))
			for _, suggestion := range u.err.Suggestions {
				fmt.Fprintf(c.out, "     did you mean: %s\n", suggestion)
			}
			if u.err.Snippet != "" {
				fmt.Fprintln(c.out, indent(u.err.Snippet, "     "))
			}
		}
		fmt.Fprintln(c.out)
	}

	s := res.Summary
	var parts []string
	if s.Passed > 0 {
		parts = append(parts, stylePassed.Render(fmt.Sprintf("%d passed", s.Passed)))
	}
	if s.Failed > 0 {
		parts = append(parts, styleFailed.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Undefined > 0 {
		parts = append(parts, styleUndefined.Render(fmt.Sprintf("%d undefined", s.Undefined)))
	}
	if s.Pending > 0 {
		parts = append(parts, styleUndefined.Render(fmt.Sprintf("%d pending", s.Pending)))
	}
	if s.Skipped > 0 {
		parts = append(parts, styleSkipped.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	if s.Retried > 0 {
		parts = append(parts, styleDim.Render(fmt.Sprintf("%d retried", s.Retried)))
	}

	if s.Total == 0 {
		fmt.Fprintln(c.out, "No scenarios")
	} else {
		fmt.Fprintf(c.out, "%d scenarios (%s)\n", s.Total, strings.Join(parts, ", "))
	}
	fmt.Fprintln(c.out, res.Duration)
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
