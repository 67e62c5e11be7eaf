package steps

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	cucumberexpressions "github.com/cucumber/cucumber-expressions/go/v16"
	"github.com/rs/zerolog/log"

	"github.com/tomatool/cuke/feature"
)

// Handler implements one step. Arguments arrive already typed by the
// expression matcher, in capture order.
type Handler func(c *Ctx, args ...any) error

// Def is one registered step definition.
type Def struct {
	Keyword feature.Keyword
	Pattern string
	Handler Handler

	expr expression
}

// expression is the slice of the cucumber-expressions contract the
// registry relies on. The registry never passes type hints; the
// variadic parameter is part of the library's method signature.
type expression interface {
	Match(text string, typeHints ...reflect.Type) ([]*cucumberexpressions.Argument, error)
	Source() string
}

// Match is a successful lookup: the winning definition and its ordered
// typed arguments.
type Match struct {
	Def  *Def
	Args []any
}

// Library contributes an ordered list of step definitions. Composition
// is concatenation: definitions already in the registry keep priority
// over the library's, and the library's own order is preserved.
type Library interface {
	Steps() []Def
}

// Registry stores step definitions, hooks, and parameter types. It is
// built during setup and read-only while scenarios execute.
type Registry struct {
	params *cucumberexpressions.ParameterTypeRegistry
	defs   []*Def

	beforeRun  []RunHook
	afterRun   []RunHook
	beforeCase []CaseHook
	afterCase  []AfterCaseHook
	beforeStep []StepHook
	afterStep  []AfterStepHook
}

// NewRegistry creates an empty registry with the built-in parameter
// types (int, float, double, long, byte, short, string, word,
// bigdecimal, biginteger).
func NewRegistry() *Registry {
	return &Registry{params: cucumberexpressions.NewParameterTypeRegistry()}
}

// Register adds a step definition. Patterns wrapped in slashes compile
// as anchored regular expressions; anything else compiles as a Cucumber
// Expression. A pattern that does not compile is a configuration error.
func (r *Registry) Register(kw feature.Keyword, pattern string, h Handler) error {
	expr, err := r.compile(pattern)
	if err != nil {
		return fmt.Errorf("steps: registering %q: %w", pattern, err)
	}
	r.defs = append(r.defs, &Def{Keyword: kw, Pattern: pattern, Handler: h, expr: expr})
	log.Debug().Str("pattern", pattern).Stringer("keyword", kw).Msg("step registered")
	return nil
}

// Given registers a step constrained to the Given keyword.
func (r *Registry) Given(pattern string, h Handler) error {
	return r.Register(feature.Given, pattern, h)
}

// When registers a step constrained to the When keyword.
func (r *Registry) When(pattern string, h Handler) error {
	return r.Register(feature.When, pattern, h)
}

// Then registers a step constrained to the Then keyword.
func (r *Registry) Then(pattern string, h Handler) error {
	return r.Register(feature.Then, pattern, h)
}

// Step registers a step matching any keyword.
func (r *Registry) Step(pattern string, h Handler) error {
	return r.Register(feature.Any, pattern, h)
}

// Use composes a step library into the registry. Definitions registered
// before Use keep matching priority over the library's.
func (r *Registry) Use(lib Library) error {
	for _, d := range lib.Steps() {
		if err := r.Register(d.Keyword, d.Pattern, d.Handler); err != nil {
			return err
		}
	}
	return nil
}

// ParamType registers a custom parameter type as one or more regexp
// alternatives plus a transform from the raw captures to the typed value.
func (r *Registry) ParamType(name string, regexps []string, transform func(captures ...string) any) error {
	res := make([]*regexp.Regexp, 0, len(regexps))
	for _, src := range regexps {
		re, err := regexp.Compile(src)
		if err != nil {
			return fmt.Errorf("steps: parameter type %q: %w", name, err)
		}
		res = append(res, re)
	}
	pt, err := cucumberexpressions.NewParameterType(name, res, "", func(groups ...*string) interface{} {
		captures := make([]string, 0, len(groups))
		for _, g := range groups {
			if g != nil {
				captures = append(captures, *g)
			}
		}
		return transform(captures...)
	}, true, false, false)
	if err != nil {
		return fmt.Errorf("steps: parameter type %q: %w", name, err)
	}
	if err := r.params.DefineParameterType(pt); err != nil {
		return fmt.Errorf("steps: parameter type %q: %w", name, err)
	}
	return nil
}

// Find returns the first registered definition, in registration order,
// whose keyword is compatible and whose pattern matches the step text.
// A nil Match with a nil error means no definition matched; that is a
// distinguished result, not an error.
func (r *Registry) Find(text string, kw feature.Keyword) (*Match, error) {
	for _, d := range r.defs {
		if !compatible(d.Keyword, kw) {
			continue
		}
		args, err := d.expr.Match(text)
		if err != nil {
			return nil, fmt.Errorf("steps: matching %q against %q: %w", text, d.Pattern, err)
		}
		if args == nil {
			continue
		}
		values := make([]any, 0, len(args))
		for _, a := range args {
			values = append(values, a.GetValue())
		}
		return &Match{Def: d, Args: values}, nil
	}
	return nil, nil
}

// Patterns returns the source of every registered pattern, in
// registration order.
func (r *Registry) Patterns() []string {
	out := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Pattern)
	}
	return out
}

func (r *Registry) compile(pattern string) (expression, error) {
	if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		re, err := regexp.Compile(anchor(pattern[1 : len(pattern)-1]))
		if err != nil {
			return nil, err
		}
		return cucumberexpressions.NewRegularExpression(re, r.params), nil
	}
	return cucumberexpressions.NewCucumberExpression(pattern, r.params)
}

func anchor(src string) string {
	if !strings.HasPrefix(src, "^") {
		src = "^" + src
	}
	if !strings.HasSuffix(src, "$") {
		src = src + "$"
	}
	return src
}

func compatible(def, step feature.Keyword) bool {
	return def == feature.Any || step == feature.Any || def == step
}
