package provider

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeExpr is a parsed type expression such as "Dictionary<string, Order[]>?".
type TypeExpr struct {
	// Name is the possibly namespace-qualified type name.
	Name string

	Args []*TypeExpr

	// Suffixes lists "[]" and "?" modifiers in source order.
	Suffixes []string
}

// String renders the expression in canonical form.
func (e *TypeExpr) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	if len(e.Args) > 0 {
		b.WriteByte('<')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	for _, s := range e.Suffixes {
		b.WriteString(s)
	}
	return b.String()
}

// ParseTypeExpr parses a type expression:
//
//	expr  = name [ "<" expr { "," expr } ">" ] { "[]" | "?" }
//	name  = ident { "." ident }
func ParseTypeExpr(s string) (*TypeExpr, error) {
	p := &exprParser{src: s}
	e, err := p.expr()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", s, err)
	}
	p.space()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) space() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.space()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) expr() (*TypeExpr, error) {
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	e := &TypeExpr{Name: name}

	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, arg)
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, fmt.Errorf("expected ',' or '>' at offset %d", p.pos)
			}
			break
		}
	}

	for {
		switch p.peek() {
		case '?':
			p.pos++
			e.Suffixes = append(e.Suffixes, "?")
			continue
		case '[':
			if !strings.HasPrefix(p.src[p.pos:], "[]") {
				return nil, fmt.Errorf("expected '[]' at offset %d", p.pos)
			}
			p.pos += 2
			e.Suffixes = append(e.Suffixes, "[]")
			continue
		}
		return e, nil
	}
}

func (p *exprParser) name() (string, error) {
	p.space()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r == '_' || r == '.' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	name := p.src[start:p.pos]
	if name == "" {
		return "", fmt.Errorf("expected type name at offset %d", start)
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return "", fmt.Errorf("malformed qualified name %q", name)
	}
	return name, nil
}
