// Package feature turns parsed Gherkin documents into the immutable
// scenario specifications the runner executes: outlines are expanded row
// by row, backgrounds are prepended, rules are flattened, and tags are
// unioned downward.
package feature

import (
	"fmt"
	"strings"

	messages "github.com/cucumber/messages/go/v21"
)

// Keyword is the primary step keyword used for definition matching.
// "And" and "But" steps are normalized to the preceding primary keyword.
type Keyword int

const (
	Any Keyword = iota
	Given
	When
	Then
)

func (k Keyword) String() string {
	switch k {
	case Given:
		return "Given"
	case When:
		return "When"
	case Then:
		return "Then"
	default:
		return "*"
	}
}

// DocString is a block of text attached to a step.
type DocString struct {
	MediaType string
	Content   string
}

// Table is a data table attached to a step.
type Table struct {
	Rows [][]string
}

// Step is one step of a concrete scenario. Text has outline placeholders
// already substituted.
type Step struct {
	Keyword     Keyword
	KeywordText string
	Text        string
	DocString   *DocString
	Table       *Table
}

// Scenario is one executable test case. It is never mutated after
// compilation; the runner treats it as read-only.
type Scenario struct {
	Name  string
	URI   string
	Line  int
	Tags  []string
	Steps []*Step
}

// HasTag reports whether any of the given tags is in the scenario's
// effective tag set.
func (s *Scenario) HasTag(names ...string) bool {
	for _, t := range s.Tags {
		for _, n := range names {
			if t == n {
				return true
			}
		}
	}
	return false
}

// Feature is the unit read from one source document.
type Feature struct {
	Name      string
	URI       string
	Tags      []string
	Scenarios []*Scenario
}

// Compile flattens a parsed Gherkin document into a Feature of concrete
// scenarios. Plain scenarios map one to one; outlines produce one
// scenario per Examples table row.
func Compile(doc *messages.GherkinDocument, uri string) (*Feature, error) {
	if doc == nil || doc.Feature == nil {
		return nil, fmt.Errorf("feature: document %s has no feature", uri)
	}

	src := doc.Feature
	f := &Feature{
		Name: src.Name,
		URI:  uri,
		Tags: tagNames(src.Tags),
	}

	var background []*messages.Step
	for _, child := range src.Children {
		switch {
		case child.Background != nil:
			background = child.Background.Steps
		case child.Scenario != nil:
			f.Scenarios = append(f.Scenarios, compileScenario(child.Scenario, uri, f.Tags, background)...)
		case child.Rule != nil:
			ruleTags := union(f.Tags, tagNames(child.Rule.Tags))
			ruleBackground := background
			for _, rc := range child.Rule.Children {
				switch {
				case rc.Background != nil:
					ruleBackground = append(append([]*messages.Step{}, background...), rc.Background.Steps...)
				case rc.Scenario != nil:
					f.Scenarios = append(f.Scenarios, compileScenario(rc.Scenario, uri, ruleTags, ruleBackground)...)
				}
			}
		}
	}

	return f, nil
}

func compileScenario(sc *messages.Scenario, uri string, inherited []string, background []*messages.Step) []*Scenario {
	if len(sc.Examples) == 0 {
		return []*Scenario{{
			Name:  sc.Name,
			URI:   uri,
			Line:  int(sc.Location.Line),
			Tags:  union(inherited, tagNames(sc.Tags)),
			Steps: compileSteps(background, sc.Steps, nil, nil),
		}}
	}

	// Scenario outline: one concrete scenario per data row. Tags from one
	// Examples block never leak into its siblings.
	var out []*Scenario
	outlineTags := union(inherited, tagNames(sc.Tags))
	for _, ex := range sc.Examples {
		if ex.TableHeader == nil {
			continue
		}
		header := cellValues(ex.TableHeader)
		for _, row := range ex.TableBody {
			values := cellValues(row)
			out = append(out, &Scenario{
				Name:  outlineName(sc.Name, header, values),
				URI:   uri,
				Line:  int(row.Location.Line),
				Tags:  union(outlineTags, tagNames(ex.Tags)),
				Steps: compileSteps(background, sc.Steps, header, values),
			})
		}
	}
	return out
}

// outlineName suffixes the outline name with the row's columns in table
// order, e.g. "adding numbers (a=1, b=2)".
func outlineName(name string, header, values []string) string {
	parts := make([]string, 0, len(header))
	for i, col := range header {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		parts = append(parts, col+"="+v)
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(parts, ", "))
}

func compileSteps(background, steps []*messages.Step, header, values []string) []*Step {
	all := make([]*messages.Step, 0, len(background)+len(steps))
	all = append(all, background...)
	all = append(all, steps...)

	out := make([]*Step, 0, len(all))
	prev := Any
	for _, ms := range all {
		kw := normalizeKeyword(ms.Keyword, prev)
		prev = kw
		st := &Step{
			Keyword:     kw,
			KeywordText: strings.TrimSpace(ms.Keyword),
			Text:        substitute(ms.Text, header, values),
		}
		if ms.DocString != nil {
			st.DocString = &DocString{
				MediaType: ms.DocString.MediaType,
				Content:   substitute(ms.DocString.Content, header, values),
			}
		}
		if ms.DataTable != nil {
			tbl := &Table{Rows: make([][]string, 0, len(ms.DataTable.Rows))}
			for _, row := range ms.DataTable.Rows {
				cells := make([]string, 0, len(row.Cells))
				for _, c := range row.Cells {
					cells = append(cells, substitute(c.Value, header, values))
				}
				tbl.Rows = append(tbl.Rows, cells)
			}
			st.Table = tbl
		}
		out = append(out, st)
	}
	return out
}

// substitute replaces every <column> occurrence with the row's literal
// cell value. This happens before any pattern matching.
func substitute(text string, header, values []string) string {
	for i, col := range header {
		if i >= len(values) {
			break
		}
		text = strings.ReplaceAll(text, "<"+col+">", values[i])
	}
	return text
}

func normalizeKeyword(raw string, prev Keyword) Keyword {
	switch strings.TrimSpace(raw) {
	case "Given":
		return Given
	case "When":
		return When
	case "Then":
		return Then
	default:
		// And, But, * inherit the preceding primary keyword.
		return prev
	}
}

func tagNames(tags []*messages.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cellValues(row *messages.TableRow) []string {
	out := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		out = append(out, c.Value)
	}
	return out
}
