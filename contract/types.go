// Package contract defines the language-agnostic API contract extracted from a
// server's service definitions. Renderers transform a contract into client
// bindings for a target language.
//
// All values are built once per generation run and are read-only afterward.
package contract

// Identity names a model, enum, or unbound generic definition.
type Identity struct {
	// Name is the simple type name without arity markers (e.g. "Page", not "Page`1").
	Name string

	// Namespace is the declaring namespace. Empty for builtins.
	Namespace string
}

// IsZero returns true if the identity is empty.
func (id Identity) IsZero() bool {
	return id.Name == "" && id.Namespace == ""
}

// String returns the qualified name.
func (id Identity) String() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "." + id.Name
}

// Kind identifies the category of a type reference.
type Kind int

const (
	KindUnsupported Kind = iota // Shape that cannot be bound to a client type
	KindPrimitive               // Builtin scalar
	KindNullable                // Nullable wrapper around Elem
	KindArray                   // Array or enumerable collection of Elem
	KindGeneric                 // Constructed generic model: Model holds the definition, Args the arguments
	KindEnum                    // Named enumeration
	KindModel                   // Plain object model
	KindTypeParam               // Placeholder inside a generic model definition
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "Unsupported"
	case KindPrimitive:
		return "Primitive"
	case KindNullable:
		return "Nullable"
	case KindArray:
		return "Array"
	case KindGeneric:
		return "Generic"
	case KindEnum:
		return "Enum"
	case KindModel:
		return "Model"
	case KindTypeParam:
		return "TypeParam"
	default:
		return "Unknown"
	}
}

// Primitive identifies a builtin scalar.
type Primitive int

const (
	PrimitiveBool Primitive = iota
	PrimitiveByte
	PrimitiveSByte
	PrimitiveInt16
	PrimitiveUInt16
	PrimitiveInt32
	PrimitiveUInt32
	PrimitiveInt64
	PrimitiveUInt64
	PrimitiveFloat32
	PrimitiveFloat64
	PrimitiveDecimal
	PrimitiveChar
	PrimitiveString
	PrimitiveObject
	PrimitiveDateTime
	PrimitiveDateTimeOffset
	PrimitiveGuid
	PrimitiveTimeSpan
)

var primitiveNames = [...]string{
	PrimitiveBool:           "bool",
	PrimitiveByte:           "byte",
	PrimitiveSByte:          "sbyte",
	PrimitiveInt16:          "short",
	PrimitiveUInt16:         "ushort",
	PrimitiveInt32:          "int",
	PrimitiveUInt32:         "uint",
	PrimitiveInt64:          "long",
	PrimitiveUInt64:         "ulong",
	PrimitiveFloat32:        "float",
	PrimitiveFloat64:        "double",
	PrimitiveDecimal:        "decimal",
	PrimitiveChar:           "char",
	PrimitiveString:         "string",
	PrimitiveObject:         "object",
	PrimitiveDateTime:       "DateTime",
	PrimitiveDateTimeOffset: "DateTimeOffset",
	PrimitiveGuid:           "Guid",
	PrimitiveTimeSpan:       "TimeSpan",
}

// String returns the canonical source name of the primitive.
func (p Primitive) String() string {
	if int(p) < 0 || int(p) >= len(primitiveNames) {
		return "unknown"
	}
	return primitiveNames[p]
}

// IsNumeric reports whether the primitive is a number on the wire.
func (p Primitive) IsNumeric() bool {
	switch p {
	case PrimitiveByte, PrimitiveSByte, PrimitiveInt16, PrimitiveUInt16,
		PrimitiveInt32, PrimitiveUInt32, PrimitiveInt64, PrimitiveUInt64,
		PrimitiveFloat32, PrimitiveFloat64, PrimitiveDecimal:
		return true
	}
	return false
}

// IsValueType reports whether the primitive is a value type in the source
// language (and so needs an explicit nullable wrapper).
func (p Primitive) IsValueType() bool {
	switch p {
	case PrimitiveString, PrimitiveObject:
		return false
	}
	return true
}

// LookupPrimitive returns the primitive with the given canonical name.
func LookupPrimitive(name string) (Primitive, bool) {
	for i, n := range primitiveNames {
		if n == name {
			return Primitive(i), true
		}
	}
	return 0, false
}
