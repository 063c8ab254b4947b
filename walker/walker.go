// Package walker discovers the models and enums a type reference depends on,
// so renderers can emit each declaration once and import it where used.
package walker

import (
	"fmt"

	"github.com/sharpness/sharpgen/contract"
)

// Error reports an unsupported type shape reached during traversal.
type Error struct {
	// Path is the chain of declarations leading to the shape, outermost first.
	Path []string

	Ref *contract.TypeRef
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("unsupported type %s: %s", e.Ref.Source, e.Ref.Reason)
	if e.Ref.Kind == contract.KindTypeParam {
		msg = "open type parameter " + e.Ref.Param + " outside a generic model"
	}
	for i := len(e.Path) - 1; i >= 0; i-- {
		msg = e.Path[i] + ": " + msg
	}
	return msg
}

// Visited is the set of model identities already discovered in a render run.
type Visited map[contract.Identity]bool

// Result is the outcome of walking one type reference.
type Result struct {
	// Imports are the identities named directly by the reference (through
	// nullable, array and generic argument positions, not through model
	// fields), in traversal order without duplicates.
	Imports []contract.Identity

	// Discovered are the declarations not previously in the visited set,
	// reached directly or through model fields, in traversal order.
	Discovered []*contract.Model
}

// Walk traverses ref, adding newly discovered declarations to visited.
// A declaration already in visited is not discovered again but is still
// reported in Imports.
func Walk(ref *contract.TypeRef, visited Visited) (Result, error) {
	w := &walk{visited: visited, imported: make(map[contract.Identity]bool)}
	if err := w.ref(ref, nil, true); err != nil {
		return Result{}, err
	}
	return w.result, nil
}

// Fields returns the identities a model declaration names directly
// through its fields, excluding itself, in field declaration order.
func Fields(m *contract.Model) []contract.Identity {
	seen := map[contract.Identity]bool{m.ID: true}
	var out []contract.Identity
	var collect func(r *contract.TypeRef)
	collect = func(r *contract.TypeRef) {
		if r == nil {
			return
		}
		switch r.Kind {
		case contract.KindNullable, contract.KindArray:
			collect(r.Elem)
		case contract.KindGeneric:
			if !seen[r.Model.ID] {
				seen[r.Model.ID] = true
				out = append(out, r.Model.ID)
			}
			for _, a := range r.Args {
				collect(a)
			}
		case contract.KindModel, contract.KindEnum:
			if !seen[r.Model.ID] {
				seen[r.Model.ID] = true
				out = append(out, r.Model.ID)
			}
		}
	}
	for _, f := range m.Fields {
		collect(f.Type)
	}
	return out
}

type walk struct {
	visited  Visited
	imported map[contract.Identity]bool
	result   Result
}

// ref visits r. direct is true outside of model fields; params names the
// placeholders in scope when walking a generic definition's fields.
func (w *walk) ref(r *contract.TypeRef, path []string, direct bool, params ...string) error {
	if r == nil {
		return nil
	}

	switch r.Kind {
	case contract.KindPrimitive:
		return nil

	case contract.KindNullable, contract.KindArray:
		return w.ref(r.Elem, path, direct, params...)

	case contract.KindGeneric:
		if err := w.declaration(r.Model, path, direct); err != nil {
			return err
		}
		for _, a := range r.Args {
			if err := w.ref(a, path, direct, params...); err != nil {
				return err
			}
		}
		return nil

	case contract.KindModel, contract.KindEnum:
		return w.declaration(r.Model, path, direct)

	case contract.KindTypeParam:
		for _, p := range params {
			if p == r.Param {
				return nil
			}
		}
		return &Error{Path: path, Ref: r}

	default:
		return &Error{Path: path, Ref: r}
	}
}

func (w *walk) declaration(m *contract.Model, path []string, direct bool) error {
	if direct && !w.imported[m.ID] {
		w.imported[m.ID] = true
		w.result.Imports = append(w.result.Imports, m.ID)
	}
	if w.visited[m.ID] {
		return nil
	}
	w.visited[m.ID] = true
	w.result.Discovered = append(w.result.Discovered, m)

	inner := append(append([]string(nil), path...), m.ID.Name)
	for _, f := range m.Fields {
		if err := w.ref(f.Type, append(inner, f.Name), false, m.TypeParams...); err != nil {
			return err
		}
	}
	return nil
}
