package steps

import (
	"fmt"
	"sort"
	"strings"

	cucumberexpressions "github.com/cucumber/cucumber-expressions/go/v16"
	"github.com/xrash/smetrics"

	"github.com/tomatool/cuke/feature"
)

// suggestThreshold is the minimum JaroWinkler similarity for a pattern
// to count as a did-you-mean candidate.
const suggestThreshold = 0.65

// Suggest ranks registered pattern sources by similarity to the step
// text and returns the n closest, best first.
func Suggest(text string, patterns []string, n int) []string {
	type scored struct {
		pattern string
		score   float64
	}
	candidates := make([]scored, 0, len(patterns))
	for _, p := range patterns {
		score := smetrics.JaroWinkler(text, p, 0.7, 4)
		if score < suggestThreshold {
			continue
		}
		candidates = append(candidates, scored{p, score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.pattern)
	}
	return out
}

// Snippet generates a handler registration stub for an undefined step,
// using the expression generator so literal numbers and quoted strings
// become typed parameters.
func (r *Registry) Snippet(st *feature.Step) string {
	pattern := st.Text
	gen := cucumberexpressions.NewCucumberExpressionGenerator(r.params)
	if exprs := gen.GenerateExpressions(st.Text); len(exprs) > 0 {
		pattern = exprs[0].Source()
	}

	method := "Step"
	switch st.Keyword {
	case feature.Given:
		method = "Given"
	case feature.When:
		method = "When"
	case feature.Then:
		method = "Then"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "r.%s(`%s`, func(c *steps.Ctx, args ...any) error {\n", method, pattern)
	b.WriteString("\treturn errors.ErrPending\n")
	b.WriteString("})\n")
	return b.String()
}
