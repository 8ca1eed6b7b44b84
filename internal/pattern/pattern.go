// Package pattern implements the keyword expression language used by rule
// pattern fields.
//
// Expressions follow this grammar:
//
//	Pattern ::= Factor (('&&' | '||') Factor)*
//	Factor  ::= '(' Pattern ')'
//	          | '!' Pattern
//	          | Keyword
//	Keyword ::= bare word | "quoted string"
//
// A keyword matches a subject by case-insensitive substring. Operators at
// the same depth associate left to right; parentheses group.
package pattern

import (
	"fmt"
	"strings"
)

// Pattern is a compiled keyword expression.
type Pattern interface {
	// Match reports whether the subject satisfies the expression.
	Match(s string) bool

	fmt.Stringer
}

type exact string

func (e exact) Match(s string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(string(e)))
}

func (e exact) String() string { return fmt.Sprintf("%q", string(e)) }

type and struct{ left, right Pattern }

func (a and) Match(s string) bool { return a.left.Match(s) && a.right.Match(s) }

func (a and) String() string { return fmt.Sprintf("%s && %s", a.left, a.right) }

type or struct{ left, right Pattern }

func (o or) Match(s string) bool { return o.left.Match(s) || o.right.Match(s) }

func (o or) String() string { return fmt.Sprintf("%s || %s", o.left, o.right) }

type not struct{ inner Pattern }

func (n not) Match(s string) bool { return !n.inner.Match(s) }

func (n not) String() string { return fmt.Sprintf("!%s", n.inner) }

// MatchOptional matches against a subject that may be absent. An absent
// subject satisfies only negated expressions: "!refurbished" holds for a
// post with no flair, "refurbished" does not.
func MatchOptional(p Pattern, s *string) bool {
	if s == nil {
		_, negated := p.(not)
		return negated
	}

	return p.Match(*s)
}

// Parse compiles an expression source string.
func Parse(src string) (Pattern, error) {
	sc := &scanner{source: []rune(src)}
	p, err := sc.pattern()
	if err != nil {
		return nil, err
	}

	// The whole input must be consumed: "gpu gtx" is a mistake, not two
	// expressions.
	tok, err := sc.nextToken()
	if err != nil {
		return nil, err
	}
	if tok != nil {
		return nil, fmt.Errorf("column %d: unexpected %s after expression", sc.lastToken, tok)
	}

	return p, nil
}

type tokenKind int

const (
	tokenParenOpen tokenKind = iota
	tokenParenClose
	tokenAnd
	tokenOr
	tokenNegate
	tokenKeyword
)

type token struct {
	kind    tokenKind
	keyword string
}

func (t *token) String() string {
	if t == nil {
		return "<<EOF>>"
	}

	switch t.kind {
	case tokenParenOpen:
		return "'('"
	case tokenParenClose:
		return "')'"
	case tokenAnd:
		return "'&&'"
	case tokenOr:
		return "'||'"
	case tokenNegate:
		return "'!'"
	default:
		return fmt.Sprintf("keyword %q", t.keyword)
	}
}

// scanner walks the source a rune at a time. lastToken remembers where the
// most recent token began so the parser can push one token back.
type scanner struct {
	source    []rune
	cursor    int
	lastToken int
}

func (sc *scanner) pattern() (Pattern, error) {
	left, err := sc.factor()
	if err != nil {
		return nil, err
	}

	for {
		tok, err := sc.nextToken()
		if err != nil {
			return nil, err
		}
		if tok == nil || (tok.kind != tokenAnd && tok.kind != tokenOr) {
			sc.rewind()
			return left, nil
		}

		right, err := sc.factor()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokenAnd {
			left = and{left: left, right: right}
		} else {
			left = or{left: left, right: right}
		}
	}
}

func (sc *scanner) factor() (Pattern, error) {
	tok, err := sc.nextToken()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, fmt.Errorf("column %d: expected '(', '!', or a keyword, got %s", sc.cursor, tok)
	}

	switch tok.kind {
	case tokenParenOpen:
		p, err := sc.pattern()
		if err != nil {
			return nil, err
		}
		closer, err := sc.nextToken()
		if err != nil {
			return nil, err
		}
		if closer == nil || closer.kind != tokenParenClose {
			return nil, fmt.Errorf("column %d: expected ')', got %s", sc.cursor, closer)
		}
		return p, nil
	case tokenNegate:
		p, err := sc.pattern()
		if err != nil {
			return nil, err
		}
		return not{inner: p}, nil
	case tokenKeyword:
		return exact(tok.keyword), nil
	default:
		return nil, fmt.Errorf("column %d: expected '(', '!', or a keyword, got %s", sc.cursor, tok)
	}
}

// nextToken returns the next token, or nil at the end of input.
func (sc *scanner) nextToken() (*token, error) {
	for sc.cursor < len(sc.source) && isSpace(sc.source[sc.cursor]) {
		sc.cursor++
	}
	sc.lastToken = sc.cursor

	ch, ok := sc.peek()
	if !ok {
		return nil, nil
	}

	switch ch {
	case '(':
		sc.cursor++
		return &token{kind: tokenParenOpen}, nil
	case ')':
		sc.cursor++
		return &token{kind: tokenParenClose}, nil
	case '!':
		sc.cursor++
		return &token{kind: tokenNegate}, nil
	case '|', '&':
		sc.cursor++
		next, ok := sc.peek()
		if !ok || next != ch {
			return nil, fmt.Errorf("column %d: expected %q", sc.cursor, string(ch))
		}
		sc.cursor++
		if ch == '|' {
			return &token{kind: tokenOr}, nil
		}
		return &token{kind: tokenAnd}, nil
	default:
		kwd, err := sc.keyword()
		if err != nil {
			return nil, err
		}
		return &token{kind: tokenKeyword, keyword: kwd}, nil
	}
}

func (sc *scanner) keyword() (string, error) {
	if sc.take('"') {
		return sc.untilNextQuote()
	}

	var b strings.Builder
	ch, ok := sc.peek()
	if !ok || isSpace(ch) {
		return "", fmt.Errorf("column %d: expected a keyword character", sc.cursor)
	}
	b.WriteRune(ch)
	sc.cursor++

	for {
		ch, ok := sc.peek()
		if !ok || isSpace(ch) || ch == '!' || ch == '|' || ch == '&' || ch == '(' || ch == ')' {
			break
		}
		if !isAlphanumeric(ch) {
			return "", fmt.Errorf("column %d: unexpected character %q in keyword, quote it", sc.cursor, string(ch))
		}
		b.WriteRune(ch)
		sc.cursor++
	}

	return b.String(), nil
}

func (sc *scanner) untilNextQuote() (string, error) {
	if sc.take('"') {
		return "", fmt.Errorf("column %d: empty keyword, check quotes", sc.cursor)
	}

	var b strings.Builder
	for {
		ch, ok := sc.peek()
		if !ok {
			break
		}
		sc.cursor++
		if ch == '"' {
			break
		}
		b.WriteRune(ch)
	}

	return b.String(), nil
}

func (sc *scanner) peek() (rune, bool) {
	if sc.cursor >= len(sc.source) {
		return 0, false
	}
	return sc.source[sc.cursor], true
}

func (sc *scanner) take(ch rune) bool {
	got, ok := sc.peek()
	if !ok || got != ch {
		return false
	}
	sc.cursor++
	return true
}

// rewind pushes the most recently scanned token back onto the input.
func (sc *scanner) rewind() {
	sc.cursor = sc.lastToken
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isAlphanumeric(ch rune) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}
