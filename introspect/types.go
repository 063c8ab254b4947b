// Package introspect defines the handles an external front end produces when it
// loads a server's type declarations. These are the only facts the contract
// builder consumes: type identity, declared properties, declared methods with
// their parameter and return handles, and a fixed set of routing and binding
// annotations.
package introspect

import "strings"

// Kind is the raw shape of a type as reported by a loader.
type Kind int

const (
	KindClass     Kind = iota // Object type with properties (or a service definition)
	KindPrimitive             // Builtin scalar
	KindEnum                  // Enumeration of named members
	KindArray                 // T[]
	KindParameter             // Open generic type parameter
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "Class"
	case KindPrimitive:
		return "Primitive"
	case KindEnum:
		return "Enum"
	case KindArray:
		return "Array"
	case KindParameter:
		return "Parameter"
	default:
		return "Unknown"
	}
}

// Traits marks well-known capabilities of a type. A trait set on a generic
// definition or a base type applies to every constructed or derived type.
type Traits uint16

const (
	TraitService    Traits = 1 << iota // Base service capability (controller)
	TraitAsync                         // Asynchronous wrapper (Task)
	TraitResult                        // Action-result wrapper
	TraitNullable                      // Nullable value wrapper
	TraitEnumerable                    // Enumerable collection
	TraitFile                          // File upload handle
)

// Type is an introspected type handle.
type Type struct {
	Name      string
	Namespace string
	Kind      Kind
	Traits    Traits
	Abstract  bool

	// Base is the direct base type, if any.
	Base *Type

	// Definition is the unbound generic definition of a constructed generic type.
	Definition *Type

	// Args are the type arguments of a constructed generic type.
	Args []*Type

	// TypeParams names the parameters of a generic definition.
	TypeParams []string

	// Element is the element type of an array.
	Element *Type

	// Members lists enum member names in declaration order.
	Members []string

	// Properties lists public properties in declaration order.
	Properties []*Property

	// Methods lists public methods in declaration order.
	Methods []*Method

	// Routes holds group-level route templates.
	Routes []string

	// Unresolved is set when the loader could not resolve the type
	// (missing dependency). Consumers must fail on it.
	Unresolved bool

	Doc string
}

// FullName returns the namespace-qualified name.
func (t *Type) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// String returns a readable rendering such as Task<ActionResult<Order>>.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch {
	case t.Kind == KindArray && t.Element != nil:
		return t.Element.String() + "[]"
	case len(t.Args) > 0:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return t.Name + "<" + strings.Join(parts, ", ") + ">"
	case len(t.TypeParams) > 0:
		return t.Name + "<" + strings.Join(t.TypeParams, ", ") + ">"
	}
	return t.Name
}

// IsGeneric reports whether t is a constructed generic type.
func (t *Type) IsGeneric() bool { return len(t.Args) > 0 }

// IsGenericDefinition reports whether t is an unbound generic definition.
func (t *Type) IsGenericDefinition() bool { return len(t.TypeParams) > 0 && len(t.Args) == 0 }

// Has reports whether t carries the trait, directly, through its generic
// definition, or through its base chain.
func (t *Type) Has(tr Traits) bool {
	seen := make(map[*Type]bool)
	for cur := t; cur != nil && !seen[cur]; cur = cur.Base {
		seen[cur] = true
		if cur.Traits&tr != 0 {
			return true
		}
		if cur.Definition != nil && cur.Definition.Traits&tr != 0 {
			return true
		}
	}
	return false
}

// Property is a public property of a class.
type Property struct {
	Name string
	Type *Type

	// JSONName is the serialization-name override, empty when absent.
	JSONName string
}

// Method is a public method of a service definition.
type Method struct {
	Name string

	// Static methods are never endpoints.
	Static bool

	// Inherited is set when the method is declared on a base type.
	Inherited bool

	Returns *Type
	Params  []*Param

	// Routes holds method-level route templates.
	Routes []string

	// Verbs holds explicit HTTP verb annotations, first one wins.
	Verbs []string

	// NonAction marks methods explicitly excluded from the endpoint set.
	NonAction bool

	Doc string
}

// Param is a method parameter.
type Param struct {
	Name string
	Type *Type

	// FromBody marks an explicit bind-from-body annotation.
	FromBody bool
}
