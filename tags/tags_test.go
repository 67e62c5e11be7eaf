package tags

import (
	"testing"
)

func TestParseAndMatch(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		tagset []string
		want   bool
	}{
		{
			name:   "empty expression matches everything",
			expr:   "",
			tagset: []string{"@anything"},
			want:   true,
		},
		{
			name:   "empty expression matches empty tagset",
			expr:   "",
			tagset: nil,
			want:   true,
		},
		{
			name:   "single tag present",
			expr:   "@smoke",
			tagset: []string{"@smoke", "@fast"},
			want:   true,
		},
		{
			name:   "single tag absent",
			expr:   "@smoke",
			tagset: []string{"@fast"},
			want:   false,
		},
		{
			name:   "and both present",
			expr:   "@a and @b",
			tagset: []string{"@a", "@b"},
			want:   true,
		},
		{
			name:   "and with not",
			expr:   "@a and not @b",
			tagset: []string{"@a"},
			want:   true,
		},
		{
			name:   "and with not rejects",
			expr:   "@a and not @b",
			tagset: []string{"@a", "@b"},
			want:   false,
		},
		{
			name:   "or either side",
			expr:   "@a or @b",
			tagset: []string{"@b"},
			want:   true,
		},
		{
			name:   "or neither side",
			expr:   "@a or @b",
			tagset: []string{"@c"},
			want:   false,
		},
		{
			name:   "precedence: or binds loosest",
			expr:   "@a or @b and @c",
			tagset: []string{"@a"},
			want:   true,
		},
		{
			name:   "precedence: not binds tightest",
			expr:   "not @a and @b",
			tagset: []string{"@b"},
			want:   true,
		},
		{
			name:   "nested parentheses",
			expr:   "(@a or (@b and not @c))",
			tagset: []string{"@b"},
			want:   true,
		},
		{
			name:   "nested parentheses reject",
			expr:   "(@a or (@b and not @c))",
			tagset: []string{"@b", "@c"},
			want:   false,
		},
		{
			name:   "double negation",
			expr:   "not not @a",
			tagset: []string{"@a"},
			want:   true,
		},
		{
			name:   "escaped parentheses in tag literal",
			expr:   `@retry\(3\)`,
			tagset: []string{"@retry(3)"},
			want:   true,
		},
		{
			name:   "escaped tag absent",
			expr:   `@retry\(3\)`,
			tagset: []string{"@retry(2)"},
			want:   false,
		},
		{
			name:   "escaped tag combines with operators",
			expr:   `@flaky and not @retry\(0\)`,
			tagset: []string{"@flaky", "@retry(2)"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.expr, err)
			}
			if got := expr.Match(tt.tagset); got != tt.want {
				t.Errorf("Parse(%q).Match(%v) = %v, want %v", tt.expr, tt.tagset, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"unbalanced open paren", "(@a and @b"},
		{"unbalanced close paren", "@a and @b)"},
		{"unknown token", "@a xor @b"},
		{"bare word", "smoke"},
		{"lone at sign", "@"},
		{"trailing operator", "@a and"},
		{"leading operator", "and @a"},
		{"empty parens", "()"},
		{"trailing escape", `@a\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.expr); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.expr)
			}
		})
	}
}
