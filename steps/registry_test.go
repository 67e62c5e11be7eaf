package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomatool/cuke/feature"
)

func noop(c *Ctx, args ...any) error { return nil }

func TestFindTypedArguments(t *testing.T) {
	r := NewRegistry()
	var got []any
	require.NoError(t, r.When("I add {int} and {int}", func(c *Ctx, args ...any) error {
		got = args
		return nil
	}))

	m, err := r.Find("I add 2 and 3", feature.When)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Len(t, m.Args, 2)
	require.Equal(t, 2, m.Args[0])
	require.Equal(t, 3, m.Args[1])

	require.NoError(t, m.Def.Handler(NewCtx(context.Background(), nil, nil, 0), m.Args...))
	require.Equal(t, m.Args, got)
}

func TestFindKeywordFiltering(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Given("a thing", noop))
	require.NoError(t, r.Then("a thing", noop))

	m, err := r.Find("a thing", feature.Then)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, feature.Then, m.Def.Keyword)

	m, err = r.Find("a thing", feature.When)
	require.NoError(t, err)
	require.Nil(t, m, "no When-compatible definition should match")
}

func TestFindFirstMatchWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Step("something {word}", noop))
	require.NoError(t, r.Step("something happens", noop))

	m, err := r.Find("something happens", feature.When)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "something {word}", m.Def.Pattern, "registration order decides")
}

func TestFindNoMatchIsNotAnError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Given("a thing", noop))

	m, err := r.Find("a completely different step", feature.Given)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestRegexPattern(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Then(`/the result should be (\d+)/`, noop))

	m, err := r.Find("the result should be 5", feature.Then)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Len(t, m.Args, 1)

	// Anchored: a superstring must not match.
	m, err = r.Find("the result should be 5 exactly", feature.Then)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestRegisterRejectsBadPattern(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Given("an {unknowntype} here", noop))
	require.Error(t, r.Given(`/unclosed (group/`, noop))
}

func TestCustomParamType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ParamType("color", []string{"red|green|blue"}, func(captures ...string) any {
		return captures[0]
	}))
	require.NoError(t, r.Given("a {color} light", noop))

	m, err := r.Find("a green light", feature.Given)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "green", m.Args[0])

	m, err = r.Find("a purple light", feature.Given)
	require.NoError(t, err)
	require.Nil(t, m)
}

type calculatorLibrary struct{}

func (calculatorLibrary) Steps() []Def {
	return []Def{
		{Keyword: feature.Given, Pattern: "a calculator", Handler: noop},
		{Keyword: feature.Then, Pattern: "the display is clear", Handler: noop},
	}
}

func TestLibraryComposition(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Given("a calculator", noop))
	require.NoError(t, r.Use(calculatorLibrary{}))

	// The composing registry's definition keeps priority.
	require.Equal(t, []string{"a calculator", "a calculator", "the display is clear"}, r.Patterns())

	m, err := r.Find("the display is clear", feature.Then)
	require.NoError(t, err)
	require.NotNil(t, m)
}
