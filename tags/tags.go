// Package tags parses and evaluates boolean tag expressions such as
// "@smoke and not (@wip or @flaky)". Malformed expressions are rejected
// when the expression is built, never during scenario selection.
package tags

import (
	"fmt"
	"strings"
	"unicode"
)

// Expression is a compiled tag expression. The zero-value source ""
// matches every scenario.
type Expression struct {
	src  string
	root node
}

// Parse compiles a tag expression. Operators are "not" (highest),
// "and", and "or" (lowest), with parenthesized grouping. Tag literals
// must start with '@'; a backslash escapes the next character, so
// `@retry\(3\)` is the single tag "@retry(3)".
func Parse(src string) (*Expression, error) {
	e := &Expression{src: src}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return e, nil
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("tags: unexpected token %q in %q", p.toks[p.pos].val, src)
	}
	e.root = root
	return e, nil
}

// Match evaluates the expression against a scenario's effective tag set.
func (e *Expression) Match(tagset []string) bool {
	if e.root == nil {
		return true
	}
	set := make(map[string]struct{}, len(tagset))
	for _, t := range tagset {
		set[t] = struct{}{}
	}
	return e.root.eval(set)
}

func (e *Expression) String() string { return e.src }

type node interface {
	eval(set map[string]struct{}) bool
}

type tagNode struct{ name string }

func (n tagNode) eval(set map[string]struct{}) bool {
	_, ok := set[n.name]
	return ok
}

type notNode struct{ sub node }

func (n notNode) eval(set map[string]struct{}) bool { return !n.sub.eval(set) }

type andNode struct{ left, right node }

func (n andNode) eval(set map[string]struct{}) bool {
	return n.left.eval(set) && n.right.eval(set)
}

type orNode struct{ left, right node }

func (n orNode) eval(set map[string]struct{}) bool {
	return n.left.eval(set) || n.right.eval(set)
}

type tokenKind int

const (
	tokTag tokenKind = iota
	tokNot
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	val  string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		default:
			// Backslash escapes let parentheses, spaces, and backslashes
			// appear inside a tag literal, e.g. `@retry\(3\)`.
			var b strings.Builder
			j := i
			for j < len(src) {
				if src[j] == '\\' {
					if j+1 >= len(src) {
						return nil, fmt.Errorf("tags: trailing escape in %q", src)
					}
					b.WriteByte(src[j+1])
					j += 2
					continue
				}
				if strings.ContainsRune("() \t\n\r", rune(src[j])) {
					break
				}
				b.WriteByte(src[j])
				j++
			}
			word := b.String()
			switch {
			case word == "not":
				toks = append(toks, token{tokNot, word})
			case word == "and":
				toks = append(toks, token{tokAnd, word})
			case word == "or":
				toks = append(toks, token{tokOr, word})
			case strings.HasPrefix(word, "@") && len(word) > 1:
				toks = append(toks, token{tokTag, word})
			default:
				return nil, fmt.Errorf("tags: unknown token %q in %q", word, src)
			}
			i = j
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) next() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	t := p.toks[p.pos]
	p.pos++
	return t, true
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("tags: unexpected end of expression")
	}
	switch t.kind {
	case tokNot:
		sub, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{sub}, nil
	case tokTag:
		return tagNode{t.val}, nil
	case tokLParen:
		sub, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok || closing.kind != tokRParen {
			return nil, fmt.Errorf("tags: unbalanced parentheses in %q", p.src())
		}
		return sub, nil
	default:
		return nil, fmt.Errorf("tags: unexpected token %q", t.val)
	}
}

func (p *parser) src() string {
	var parts []string
	for _, t := range p.toks {
		parts = append(parts, t.val)
	}
	return strings.Join(parts, " ")
}
