// Package directive parses sharpgen directives from Go source files.
//
// Directives are line comments in the doc comment of a type or method
// declaration:
//
//	//sharp:route api/orders/{id}
//	//sharp:method PUT
//	//sharp:body order
//	//sharp:nonaction
//	//sharp:abstract
//
// The route directive may appear on types and methods and may repeat. The
// abstract directive is only valid on types; method, body and nonaction are
// only valid on methods.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"
)

const prefix = "//sharp:"

// Kind represents the type of directive.
type Kind string

const (
	KindRoute     Kind = "route"
	KindMethod    Kind = "method"
	KindBody      Kind = "body"
	KindNonAction Kind = "nonaction"
	KindAbstract  Kind = "abstract"
)

// Directive represents a parsed sharpgen directive.
type Directive struct {
	Kind Kind
	Arg  string         // argument, empty for flag directives
	Pos  token.Position // source location
}

// Set holds the directives attached to one declaration, in source order.
type Set []Directive

// Has reports whether the set contains a directive of kind k.
func (s Set) Has(k Kind) bool {
	for _, d := range s {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// Args returns the arguments of every directive of kind k.
func (s Set) Args(k Kind) []string {
	var out []string
	for _, d := range s {
		if d.Kind == k {
			out = append(out, d.Arg)
		}
	}
	return out
}

// Result maps declarations to their directives. Type declarations are keyed
// by type name, methods by "Type.Method".
type Result map[string]Set

// Key returns the Result key for a method of a type.
func Key(typeName, method string) string {
	return typeName + "." + method
}

type target int

const (
	onType target = 1 << iota
	onMethod
)

var rules = map[Kind]struct {
	where  target
	hasArg bool
}{
	KindRoute:     {onType | onMethod, true},
	KindMethod:    {onMethod, true},
	KindBody:      {onMethod, true},
	KindNonAction: {onMethod, false},
	KindAbstract:  {onType, false},
}

// ParseFile extracts directives from a single file. Directives must sit in
// the doc comment of a type or method declaration.
func ParseFile(fset *token.FileSet, f *ast.File) (Result, error) {
	type pending struct {
		set     Set
		matched bool
	}
	groups := make(map[*ast.CommentGroup]*pending)
	var order []*ast.CommentGroup

	for _, cg := range f.Comments {
		var set Set
		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, prefix) {
				continue
			}
			d, err := parse(fset.Position(c.Pos()), strings.TrimPrefix(c.Text, prefix))
			if err != nil {
				return nil, err
			}
			set = append(set, d)
		}
		if len(set) > 0 {
			groups[cg] = &pending{set: set}
			order = append(order, cg)
		}
	}

	result := make(Result)
	attach := func(doc *ast.CommentGroup, key string, where target) error {
		p, ok := groups[doc]
		if doc == nil || !ok {
			return nil
		}
		p.matched = true
		for _, d := range p.set {
			if rules[d.Kind].where&where == 0 {
				return fmt.Errorf("%s: //sharp:%s is not allowed on %s", d.Pos, d.Kind, describe(where))
			}
		}
		result[key] = append(result[key], p.set...)
		return nil
	}

	for _, decl := range f.Decls {
		switch decl := decl.(type) {
		case *ast.GenDecl:
			if decl.Tok != token.TYPE {
				continue
			}
			for _, spec := range decl.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(decl.Specs) == 1 {
					doc = decl.Doc
				}
				if err := attach(doc, ts.Name.Name, onType); err != nil {
					return nil, err
				}
			}
		case *ast.FuncDecl:
			if decl.Recv == nil || len(decl.Recv.List) == 0 {
				continue
			}
			recv := Receiver(decl.Recv.List[0].Type)
			if err := attach(decl.Doc, Key(recv, decl.Name.Name), onMethod); err != nil {
				return nil, err
			}
		}
	}

	for _, cg := range order {
		if p := groups[cg]; !p.matched {
			d := p.set[0]
			return nil, fmt.Errorf("%s: //sharp:%s directive must be followed by a type or method declaration", d.Pos, d.Kind)
		}
	}

	return result, nil
}

func parse(pos token.Position, text string) (Directive, error) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return Directive{}, fmt.Errorf("%s: empty //sharp: directive", pos)
	}
	kind := Kind(parts[0])
	rule, ok := rules[kind]
	if !ok {
		return Directive{}, fmt.Errorf("%s: unknown directive //sharp:%s", pos, parts[0])
	}

	d := Directive{Kind: kind, Pos: pos}
	switch {
	case rule.hasArg && len(parts) != 2:
		return Directive{}, fmt.Errorf("%s: //sharp:%s takes exactly one argument", pos, kind)
	case !rule.hasArg && len(parts) != 1:
		return Directive{}, fmt.Errorf("%s: //sharp:%s takes no arguments", pos, kind)
	case rule.hasArg:
		d.Arg = parts[1]
	}
	return d, nil
}

// Receiver returns the type name of a method receiver expression such as
// *Repo[T].
func Receiver(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return Receiver(t.X)
	case *ast.IndexExpr:
		return Receiver(t.X)
	case *ast.IndexListExpr:
		return Receiver(t.X)
	case *ast.ParenExpr:
		return Receiver(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func describe(where target) string {
	if where == onType {
		return "a type"
	}
	return "a method"
}
