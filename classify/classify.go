// Package classify turns introspected type handles into contract type
// references and unwraps asynchronous and action-result wrappers from
// endpoint return types.
package classify

import (
	"errors"
	"fmt"

	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/introspect"
)

// ErrUnresolved is returned when a handle the loader could not resolve
// reaches the classifier.
var ErrUnresolved = errors.New("unresolved type")

// ClassificationError reports a type shape that cannot be bound to a client type.
type ClassificationError struct {
	// Type is the readable source rendering of the offending type.
	Type string

	// Context locates the use site (e.g. "Orders.Upload parameter file").
	Context string

	Reason string
}

func (e *ClassificationError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("cannot classify %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("%s: cannot classify %s: %s", e.Context, e.Type, e.Reason)
}

// Classifier maps handles to type references. Model declarations are
// memoized by identity, so every reference to a model shares one *contract.Model
// and recursive models terminate.
type Classifier struct {
	models map[contract.Identity]*contract.Model
}

// New returns an empty Classifier.
func New() *Classifier {
	return &Classifier{models: make(map[contract.Identity]*contract.Model)}
}

// Classify maps t to a type reference. Every representable handle maps to
// exactly one kind; shapes that cannot be bound map to a KindUnsupported
// marker that callers must reject. The only error is an unresolved handle.
func (c *Classifier) Classify(t *introspect.Type) (*contract.TypeRef, error) {
	return c.classify(t, nil)
}

// Models returns the number of distinct model declarations seen so far.
func (c *Classifier) Models() int {
	return len(c.models)
}

// classify maps t with params naming the placeholders in scope.
func (c *Classifier) classify(t *introspect.Type, params map[string]bool) (*contract.TypeRef, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: missing type handle", ErrUnresolved)
	}
	if t.Unresolved {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, t.FullName())
	}

	source := t.String()

	switch {
	case t.Kind == introspect.KindParameter:
		if params[t.Name] {
			return contract.TypeParamRef(t.Name), nil
		}
		return contract.Unsupported(source, "open type parameter outside a generic model"), nil

	case t.Kind == introspect.KindArray:
		if t.Element == nil {
			return contract.Unsupported(source, "array without element type"), nil
		}
		elem, err := c.classify(t.Element, params)
		if err != nil {
			return nil, err
		}
		return contract.ArrayOf(elem), nil

	case t.Has(introspect.TraitNullable):
		if len(t.Args) != 1 {
			return contract.Unsupported(source, "nullable wrapper without a single type argument"), nil
		}
		inner, err := c.classify(t.Args[0], params)
		if err != nil {
			return nil, err
		}
		return contract.NullableOf(inner), nil

	case t.Has(introspect.TraitEnumerable):
		if len(t.Args) != 1 {
			return contract.Unsupported(source, "collection without a single element type"), nil
		}
		elem, err := c.classify(t.Args[0], params)
		if err != nil {
			return nil, err
		}
		return contract.ArrayOf(elem), nil

	case t.Has(introspect.TraitAsync | introspect.TraitResult):
		return contract.Unsupported(source, "wrapper types are only allowed as endpoint return types"), nil

	case t.Has(introspect.TraitFile):
		return contract.Unsupported(source, "file handles are only allowed as endpoint parameters"), nil

	case t.Has(introspect.TraitService):
		return contract.Unsupported(source, "service definitions cannot be payloads"), nil

	case t.Kind == introspect.KindEnum:
		return contract.ModelRef(c.enum(t)), nil

	case t.Kind == introspect.KindPrimitive:
		p, ok := contract.LookupPrimitive(t.Name)
		if !ok {
			return contract.Unsupported(source, "unknown primitive"), nil
		}
		return contract.Prim(p), nil

	case t.IsGeneric():
		if t.Definition == nil {
			return contract.Unsupported(source, "constructed generic without definition"), nil
		}
		def, err := c.model(t.Definition)
		if err != nil {
			return nil, err
		}
		args := make([]*contract.TypeRef, len(t.Args))
		for i, a := range t.Args {
			if args[i], err = c.classify(a, params); err != nil {
				return nil, err
			}
		}
		ref := contract.GenericOf(def, args...)
		ref.Source = source
		return ref, nil

	case t.IsGenericDefinition():
		return contract.Unsupported(source, "unbound generic definition used as a type"), nil

	case t.Kind == introspect.KindClass:
		m, err := c.model(t)
		if err != nil {
			return nil, err
		}
		return contract.ModelRef(m), nil
	}

	return contract.Unsupported(source, "unknown type shape "+t.Kind.String()), nil
}

func identity(t *introspect.Type) contract.Identity {
	return contract.Identity{Name: t.Name, Namespace: t.Namespace}
}

func (c *Classifier) enum(t *introspect.Type) *contract.Model {
	id := identity(t)
	if m, ok := c.models[id]; ok {
		return m
	}
	m := &contract.Model{
		ID:      id,
		Members: append(make([]string, 0, len(t.Members)), t.Members...),
		Doc:     t.Doc,
	}
	c.models[id] = m
	return m
}

// model returns the declaration for a class or generic definition, building
// it on first use. The declaration is cached before its fields are
// classified so self-referencing models resolve to the same node.
func (c *Classifier) model(t *introspect.Type) (*contract.Model, error) {
	id := identity(t)
	if m, ok := c.models[id]; ok {
		return m, nil
	}

	m := &contract.Model{
		ID:         id,
		TypeParams: append([]string(nil), t.TypeParams...),
		Doc:        t.Doc,
	}
	c.models[id] = m

	var params map[string]bool
	if len(t.TypeParams) > 0 {
		params = make(map[string]bool, len(t.TypeParams))
		for _, p := range t.TypeParams {
			params[p] = true
		}
	}

	for _, prop := range properties(t) {
		ref, err := c.classify(prop.Type, params)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, prop.Name, err)
		}
		m.Fields = append(m.Fields, contract.Field{
			Name:     prop.Name,
			JSONName: prop.JSONName,
			Type:     ref,
		})
	}

	return m, nil
}

// properties returns the public properties of t, inherited ones first from
// the root-most model base down. A redeclared name keeps the most derived
// declaration. Service and builtin bases contribute nothing.
func properties(t *introspect.Type) []*introspect.Property {
	var chain []*introspect.Type
	seen := map[*introspect.Type]bool{t: true}
	for cur := t.Base; cur != nil && !seen[cur]; cur = cur.Base {
		if cur.Unresolved || cur.Kind != introspect.KindClass || cur.Traits != 0 || cur.Has(introspect.TraitService) {
			break
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	if len(chain) == 0 {
		return t.Properties
	}

	declared := make(map[string]bool, len(t.Properties))
	for _, p := range t.Properties {
		declared[p.Name] = true
	}

	var out []*introspect.Property
	for i := len(chain) - 1; i >= 0; i-- {
		base := chain[i]
		var bindings map[string]*introspect.Type
		if base.IsGeneric() && base.Definition != nil {
			bindings = make(map[string]*introspect.Type, len(base.Args))
			for j, name := range base.Definition.TypeParams {
				if j < len(base.Args) {
					bindings[name] = base.Args[j]
				}
			}
		}
		for _, p := range base.Properties {
			if declared[p.Name] {
				continue
			}
			declared[p.Name] = true
			if bindings != nil {
				p = &introspect.Property{Name: p.Name, JSONName: p.JSONName, Type: bind(p.Type, bindings)}
			}
			out = append(out, p)
		}
	}
	return append(out, t.Properties...)
}

// bind substitutes type parameters in t.
func bind(t *introspect.Type, bindings map[string]*introspect.Type) *introspect.Type {
	switch {
	case t == nil:
		return nil
	case t.Kind == introspect.KindParameter:
		if r, ok := bindings[t.Name]; ok {
			return r
		}
	case t.Kind == introspect.KindArray:
		if e := bind(t.Element, bindings); e != t.Element {
			return introspect.ArrayOf(e)
		}
	case t.IsGeneric() && t.Definition != nil:
		args := make([]*introspect.Type, len(t.Args))
		changed := false
		for i, a := range t.Args {
			args[i] = bind(a, bindings)
			changed = changed || args[i] != a
		}
		if changed {
			return introspect.Construct(t.Definition, args...)
		}
	}
	return t
}
