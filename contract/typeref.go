package contract

import "strings"

// TypeRef describes a data shape used by an endpoint, a parameter, or a model field.
//
// Model and Enum references point at a shared *Model, so a type used by many
// endpoints is one node referenced from each of them.
type TypeRef struct {
	Kind Kind

	// Primitive is set for KindPrimitive.
	Primitive Primitive

	// Elem is the inner type of KindNullable and the element of KindArray.
	Elem *TypeRef

	// Model is the declaration for KindModel, KindEnum and the unbound
	// definition for KindGeneric.
	Model *Model

	// Args are the type arguments of KindGeneric, in declaration order.
	Args []*TypeRef

	// Param is the placeholder name for KindTypeParam.
	Param string

	// Reason explains a KindUnsupported reference.
	Reason string

	// Source is the readable source rendering of the type, for diagnostics.
	Source string
}

// Identity returns the model identity of Model, Enum and Generic references.
func (r *TypeRef) Identity() Identity {
	if r == nil || r.Model == nil {
		return Identity{}
	}
	return r.Model.ID
}

// Key returns a stable key for deduplicating references.
func (r *TypeRef) Key() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case KindPrimitive:
		return r.Primitive.String()
	case KindNullable:
		return r.Elem.Key() + "?"
	case KindArray:
		return r.Elem.Key() + "[]"
	case KindModel, KindEnum:
		return r.Model.ID.String()
	case KindGeneric:
		parts := make([]string, len(r.Args))
		for i, a := range r.Args {
			parts[i] = a.Key()
		}
		return r.Model.ID.String() + "<" + strings.Join(parts, ",") + ">"
	case KindTypeParam:
		return "$" + r.Param
	default:
		return "!" + r.Source
	}
}

// String returns a readable rendering of the reference.
func (r *TypeRef) String() string {
	if r == nil {
		return "<none>"
	}
	switch r.Kind {
	case KindPrimitive:
		return r.Primitive.String()
	case KindNullable:
		return r.Elem.String() + "?"
	case KindArray:
		return r.Elem.String() + "[]"
	case KindModel, KindEnum:
		return r.Model.ID.Name
	case KindGeneric:
		parts := make([]string, len(r.Args))
		for i, a := range r.Args {
			parts[i] = a.String()
		}
		return r.Model.ID.Name + "<" + strings.Join(parts, ", ") + ">"
	case KindTypeParam:
		return r.Param
	default:
		return "unsupported(" + r.Source + ")"
	}
}

// Prim returns a TypeRef for a primitive.
func Prim(p Primitive) *TypeRef {
	return &TypeRef{Kind: KindPrimitive, Primitive: p, Source: p.String()}
}

// NullableOf returns a nullable wrapper.
func NullableOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNullable, Elem: elem}
}

// ArrayOf returns an array reference.
func ArrayOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindArray, Elem: elem}
}

// ModelRef returns a reference to a plain model or enum.
func ModelRef(m *Model) *TypeRef {
	kind := KindModel
	if m.IsEnum() {
		kind = KindEnum
	}
	return &TypeRef{Kind: kind, Model: m, Source: m.ID.Name}
}

// GenericOf returns a constructed generic reference.
func GenericOf(def *Model, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindGeneric, Model: def, Args: args}
}

// TypeParamRef returns a placeholder reference.
func TypeParamRef(name string) *TypeRef {
	return &TypeRef{Kind: KindTypeParam, Param: name, Source: name}
}

// Unsupported returns a marker for a shape that cannot be bound.
func Unsupported(source, reason string) *TypeRef {
	return &TypeRef{Kind: KindUnsupported, Source: source, Reason: reason}
}

// Model is the declaration of a plain model, an enum, or an unbound generic model definition.
type Model struct {
	ID Identity

	// Members lists enum members in declaration order. Non-nil only for enums.
	Members []string

	// TypeParams names the placeholders of a generic definition.
	TypeParams []string

	// Fields lists model fields in declaration order.
	Fields []Field

	Doc string
}

// IsEnum reports whether the model is an enumeration.
func (m *Model) IsEnum() bool { return m.Members != nil }

// IsGenericDefinition reports whether the model declares type parameters.
func (m *Model) IsGenericDefinition() bool { return len(m.TypeParams) > 0 }

// Field is a named model field.
type Field struct {
	// Name is the declared field name.
	Name string

	// JSONName is the serialization-name override, empty when absent.
	JSONName string

	Type *TypeRef
}
