// Package provider implements front ends that load server type declarations
// into introspected type handles for the contract builder.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sharpness/sharpgen/introspect"
)

var validate = validator.New()

// Description is a YAML or JSON contract description.
type Description struct {
	// Namespace applies to every type that does not set its own.
	Namespace string     `yaml:"namespace"`
	Types     []TypeDecl `yaml:"types" validate:"dive"`
}

// TypeDecl declares a class, enum, generic definition or service.
type TypeDecl struct {
	Name      string `yaml:"name" validate:"required"`
	Namespace string `yaml:"namespace"`
	Doc       string `yaml:"doc"`

	// Base is a type expression naming the base type, e.g. "Controller".
	Base     string `yaml:"base"`
	Abstract bool   `yaml:"abstract"`

	// Params names the type parameters of a generic definition.
	Params []string `yaml:"params" validate:"dive,required"`

	// Enum lists the members of an enumeration.
	Enum []string `yaml:"enum" validate:"excluded_with=Properties Methods Params,dive,required"`

	Properties []PropertyDecl `yaml:"properties" validate:"dive"`
	Methods    []MethodDecl   `yaml:"methods" validate:"dive"`
	Routes     []string       `yaml:"routes"`
}

// PropertyDecl declares a property.
type PropertyDecl struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
	JSON string `yaml:"json"`
}

// MethodDecl declares a service method.
type MethodDecl struct {
	Name string `yaml:"name" validate:"required"`
	Doc  string `yaml:"doc"`

	// Returns is a type expression; empty or "void" means no payload.
	Returns   string      `yaml:"returns"`
	Params    []ParamDecl `yaml:"params" validate:"dive"`
	Routes    []string    `yaml:"routes"`
	Verbs     []string    `yaml:"verbs"`
	Static    bool        `yaml:"static"`
	Inherited bool        `yaml:"inherited"`
	NonAction bool        `yaml:"nonaction"`
}

// ParamDecl declares a method parameter.
type ParamDecl struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
	Body bool   `yaml:"body"`
}

// ParseDescription decodes a description. JSON input is accepted as YAML.
// Unknown keys are an error.
func ParseDescription(r io.Reader) (*Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Description
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty description")
		}
		return nil, fmt.Errorf("decode description: %w", err)
	}
	if err := validate.Struct(&d); err != nil {
		return nil, fmt.Errorf("invalid description: %w", err)
	}
	return &d, nil
}

// DescriptionProvider loads types from a contract description.
type DescriptionProvider struct{}

// DescriptionInputOptions configures description loading. Exactly one of
// Path and Data is used; Data wins when both are set.
type DescriptionInputOptions struct {
	Path string
	Data []byte
}

// Load reads the description and resolves it into type handles, in
// declaration order. Names that resolve neither to a declared type nor to a
// builtin become unresolved handles, which the builder reports.
func (p *DescriptionProvider) Load(ctx context.Context, opts DescriptionInputOptions) ([]*introspect.Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := opts.Data
	if data == nil {
		if opts.Path == "" {
			return nil, fmt.Errorf("no description specified")
		}
		var err error
		if data, err = os.ReadFile(opts.Path); err != nil {
			return nil, fmt.Errorf("read description: %w", err)
		}
	}

	d, err := ParseDescription(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return d.Resolve(introspect.NewUniverse())
}

// Resolve builds type handles for every declaration against the builtins in u.
func (d *Description) Resolve(u *introspect.Universe) ([]*introspect.Type, error) {
	r := &resolver{
		universe: u,
		byFull:   make(map[string]*introspect.Type),
		byName:   make(map[string][]*introspect.Type),
	}

	types := make([]*introspect.Type, len(d.Types))
	for i := range d.Types {
		decl := &d.Types[i]
		ns := decl.Namespace
		if ns == "" {
			ns = d.Namespace
		}
		t := &introspect.Type{
			Name:       decl.Name,
			Namespace:  ns,
			Kind:       introspect.KindClass,
			Abstract:   decl.Abstract,
			TypeParams: append([]string(nil), decl.Params...),
			Routes:     append([]string(nil), decl.Routes...),
			Doc:        decl.Doc,
		}
		if len(decl.Enum) > 0 {
			t.Kind = introspect.KindEnum
			t.Members = append([]string(nil), decl.Enum...)
		}
		if _, dup := r.byFull[t.FullName()]; dup {
			return nil, fmt.Errorf("type %s declared twice", t.FullName())
		}
		r.byFull[t.FullName()] = t
		r.byName[t.Name] = append(r.byName[t.Name], t)
		types[i] = t
	}

	for i := range d.Types {
		if err := r.fill(types[i], &d.Types[i]); err != nil {
			return nil, fmt.Errorf("type %s: %w", types[i].FullName(), err)
		}
	}
	return types, nil
}

type resolver struct {
	universe *introspect.Universe
	byFull   map[string]*introspect.Type
	byName   map[string][]*introspect.Type
}

func (r *resolver) fill(t *introspect.Type, decl *TypeDecl) error {
	scope := make(map[string]bool, len(decl.Params))
	for _, p := range decl.Params {
		scope[p] = true
	}

	if decl.Base != "" {
		base, err := r.parse(decl.Base, scope)
		if err != nil {
			return fmt.Errorf("base: %w", err)
		}
		t.Base = base
	}

	for _, pd := range decl.Properties {
		pt, err := r.parse(pd.Type, scope)
		if err != nil {
			return fmt.Errorf("property %s: %w", pd.Name, err)
		}
		t.Properties = append(t.Properties, &introspect.Property{Name: pd.Name, Type: pt, JSONName: pd.JSON})
	}

	for _, md := range decl.Methods {
		m := &introspect.Method{
			Name:      md.Name,
			Static:    md.Static,
			Inherited: md.Inherited,
			NonAction: md.NonAction,
			Routes:    append([]string(nil), md.Routes...),
			Verbs:     append([]string(nil), md.Verbs...),
			Doc:       md.Doc,
		}
		returns := strings.TrimSpace(md.Returns)
		if returns == "" || returns == "void" {
			m.Returns = r.universe.Lookup("Task")
		} else {
			rt, err := r.parse(returns, scope)
			if err != nil {
				return fmt.Errorf("method %s: returns: %w", md.Name, err)
			}
			m.Returns = rt
		}
		for _, pd := range md.Params {
			pt, err := r.parse(pd.Type, scope)
			if err != nil {
				return fmt.Errorf("method %s: parameter %s: %w", md.Name, pd.Name, err)
			}
			m.Params = append(m.Params, &introspect.Param{Name: pd.Name, Type: pt, FromBody: pd.Body})
		}
		t.Methods = append(t.Methods, m)
	}
	return nil
}

func (r *resolver) parse(s string, scope map[string]bool) (*introspect.Type, error) {
	e, err := ParseTypeExpr(s)
	if err != nil {
		return nil, err
	}
	return r.resolve(e, scope), nil
}

func (r *resolver) resolve(e *TypeExpr, scope map[string]bool) *introspect.Type {
	args := make([]*introspect.Type, len(e.Args))
	for i, a := range e.Args {
		args[i] = r.resolve(a, scope)
	}

	t := r.named(e.Name, args, scope)
	for _, s := range e.Suffixes {
		if s == "[]" {
			t = introspect.ArrayOf(t)
		} else {
			t = introspect.Construct(r.universe.Generic("Nullable", 1), t)
		}
	}
	return t
}

func (r *resolver) named(name string, args []*introspect.Type, scope map[string]bool) *introspect.Type {
	if len(args) == 0 && scope[name] {
		return introspect.TypeParam(name)
	}

	short, ns := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ns, short = name[:i], name[i+1:]
	}

	if def := r.declared(name, short, ns, len(args)); def != nil {
		if len(args) == 0 {
			return def
		}
		return introspect.Construct(def, args...)
	}

	var builtin *introspect.Type
	if len(args) == 0 {
		builtin = r.universe.Lookup(short)
	} else {
		builtin = r.universe.Generic(short, len(args))
	}
	if builtin != nil && (ns == "" || ns == builtin.Namespace) {
		if len(args) == 0 {
			return builtin
		}
		return introspect.Construct(builtin, args...)
	}

	return &introspect.Type{Name: short, Namespace: ns, Args: args, Unresolved: true}
}

// declared finds a declared type by qualified name, or by short name when
// the name is unqualified. Arity must match.
func (r *resolver) declared(name, short, ns string, arity int) *introspect.Type {
	if ns != "" {
		if t := r.byFull[name]; t != nil && len(t.TypeParams) == arity {
			return t
		}
		return nil
	}
	for _, t := range r.byName[short] {
		if len(t.TypeParams) == arity {
			return t
		}
	}
	return nil
}
