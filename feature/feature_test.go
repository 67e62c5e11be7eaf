package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Feature {
	t.Helper()
	f, err := Parse("test.feature", strings.NewReader(src))
	require.NoError(t, err)
	return f
}

func TestCompilePlainScenario(t *testing.T) {
	f := parse(t, `
Feature: calculator

  Scenario: addition
    Given a calculator
    When I add 2 and 3
    Then the result should be 5
`)

	require.Equal(t, "calculator", f.Name)
	require.Len(t, f.Scenarios, 1)

	sc := f.Scenarios[0]
	require.Equal(t, "addition", sc.Name)
	require.Len(t, sc.Steps, 3)
	require.Equal(t, Given, sc.Steps[0].Keyword)
	require.Equal(t, When, sc.Steps[1].Keyword)
	require.Equal(t, Then, sc.Steps[2].Keyword)
	require.Equal(t, "I add 2 and 3", sc.Steps[1].Text)
}

func TestKeywordNormalization(t *testing.T) {
	f := parse(t, `
Feature: normalization

  Scenario: and inherits
    Given a thing
    And another thing
    When something happens
    But nothing breaks
    Then all is well
    And so is this
`)

	want := []Keyword{Given, Given, When, When, Then, Then}
	sc := f.Scenarios[0]
	require.Len(t, sc.Steps, len(want))
	for i, kw := range want {
		require.Equal(t, kw, sc.Steps[i].Keyword, "step %d", i)
	}
}

func TestOutlineExpansion(t *testing.T) {
	f := parse(t, `
Feature: outlines

  Scenario Outline: adding
    Given a calculator
    When I add <a> and <b>
    Then the result should be <sum>

    Examples:
      | a | b | sum |
      | 1 | 2 | 3   |
      | 2 | 3 | 5   |

    @extra
    Examples:
      | a  | b | sum |
      | 10 | 5 | 15  |
`)

	// Row-count preserving: 3 rows across both blocks.
	require.Len(t, f.Scenarios, 3)

	require.Equal(t, "adding (a=1, b=2, sum=3)", f.Scenarios[0].Name)
	require.Equal(t, "adding (a=2, b=3, sum=5)", f.Scenarios[1].Name)
	require.Equal(t, "adding (a=10, b=5, sum=15)", f.Scenarios[2].Name)

	require.Equal(t, "I add 2 and 3", f.Scenarios[1].Steps[1].Text)
	require.Equal(t, "the result should be 15", f.Scenarios[2].Steps[2].Text)

	// No placeholder residue anywhere.
	for _, sc := range f.Scenarios {
		for _, st := range sc.Steps {
			require.NotContains(t, st.Text, "<")
		}
	}

	// Examples tags do not leak across sibling blocks.
	require.NotContains(t, f.Scenarios[0].Tags, "@extra")
	require.NotContains(t, f.Scenarios[1].Tags, "@extra")
	require.Contains(t, f.Scenarios[2].Tags, "@extra")
}

func TestOutlineSubstitutionInArguments(t *testing.T) {
	f := parse(t, `
Feature: outline arguments

  Scenario Outline: docs and tables
    Given a note
      """
      value is <v>
      """
    And a table
      | cell     |
      | has <v>  |

    Examples:
      | v  |
      | 42 |
`)

	require.Len(t, f.Scenarios, 1)
	sc := f.Scenarios[0]
	require.NotNil(t, sc.Steps[0].DocString)
	require.Equal(t, "value is 42", sc.Steps[0].DocString.Content)
	require.NotNil(t, sc.Steps[1].Table)
	require.Equal(t, "has 42", sc.Steps[1].Table.Rows[1][0])
}

func TestTagUnion(t *testing.T) {
	f := parse(t, `
@feat
Feature: tagged

  @fast
  Scenario: plain
    Given a thing

  @outline
  Scenario Outline: templated
    Given a <x>

    @rows
    Examples:
      | x |
      | y |
`)

	require.Contains(t, f.Tags, "@feat")

	plain := f.Scenarios[0]
	require.ElementsMatch(t, []string{"@feat", "@fast"}, plain.Tags)

	row := f.Scenarios[1]
	require.ElementsMatch(t, []string{"@feat", "@outline", "@rows"}, row.Tags)
}

func TestBackgroundPrepended(t *testing.T) {
	f := parse(t, `
Feature: backgrounds

  Background:
    Given a clean slate

  Scenario: first
    When something happens

  Scenario: second
    When something else happens
`)

	require.Len(t, f.Scenarios, 2)
	for _, sc := range f.Scenarios {
		require.Equal(t, "a clean slate", sc.Steps[0].Text)
		require.Len(t, sc.Steps, 2)
	}
}

func TestRuleScenariosInheritTags(t *testing.T) {
	f := parse(t, `
@feat
Feature: rules

  @rule
  Rule: a rule
    Scenario: inside
      Given a thing
`)

	require.Len(t, f.Scenarios, 1)
	require.ElementsMatch(t, []string{"@feat", "@rule"}, f.Scenarios[0].Tags)
}

func TestParseError(t *testing.T) {
	_, err := Parse("broken.feature", strings.NewReader("not gherkin at all\n%%%"))
	require.Error(t, err)
}

func TestHasTag(t *testing.T) {
	sc := &Scenario{Tags: []string{"@a", "@b"}}
	require.True(t, sc.HasTag("@b"))
	require.True(t, sc.HasTag("@x", "@a"))
	require.False(t, sc.HasTag("@x"))
	require.False(t, sc.HasTag())
}
