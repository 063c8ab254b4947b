package introspect

// Namespaces of the builtin handles.
const (
	NamespaceSystem      = "System"
	NamespaceTasks       = "System.Threading.Tasks"
	NamespaceCollections = "System.Collections.Generic"
	NamespaceMvc         = "Microsoft.AspNetCore.Mvc"
	NamespaceHTTP        = "Microsoft.AspNetCore.Http"
)

// Universe is a lookup table of builtin type handles shared by loaders.
type Universe struct {
	byName map[string]*Type
	order  []*Type
}

var primitiveNames = []string{
	"bool", "byte", "sbyte", "short", "ushort", "int", "uint", "long", "ulong",
	"float", "double", "decimal", "char", "string", "object",
	"DateTime", "DateTimeOffset", "Guid", "TimeSpan",
}

// NewUniverse returns a fresh set of builtin handles. Handles are not shared
// between universes, so loaders may attach them to their own graphs freely.
func NewUniverse() *Universe {
	u := &Universe{byName: make(map[string]*Type)}

	for _, name := range primitiveNames {
		u.add(&Type{Name: name, Namespace: NamespaceSystem, Kind: KindPrimitive})
	}

	u.add(&Type{Name: "Task", Namespace: NamespaceTasks, Traits: TraitAsync})
	u.addGeneric("Task", NamespaceTasks, TraitAsync)
	u.add(&Type{Name: "ValueTask", Namespace: NamespaceTasks, Traits: TraitAsync})
	u.addGeneric("ValueTask", NamespaceTasks, TraitAsync)

	u.add(&Type{Name: "ActionResult", Namespace: NamespaceMvc, Traits: TraitResult})
	u.add(&Type{Name: "IActionResult", Namespace: NamespaceMvc, Traits: TraitResult})
	u.addGeneric("ActionResult", NamespaceMvc, TraitResult)

	u.addGeneric("Nullable", NamespaceSystem, TraitNullable)

	for _, name := range []string{"List", "IEnumerable", "IList", "ICollection", "IReadOnlyList", "IReadOnlyCollection", "HashSet"} {
		u.addGeneric(name, NamespaceCollections, TraitEnumerable)
	}

	u.add(&Type{Name: "IFormFile", Namespace: NamespaceHTTP, Traits: TraitFile})
	u.add(&Type{Name: "Controller", Namespace: NamespaceMvc, Traits: TraitService, Abstract: true})
	u.add(&Type{Name: "ControllerBase", Namespace: NamespaceMvc, Traits: TraitService, Abstract: true})

	return u
}

func (u *Universe) add(t *Type) {
	u.byName[t.Name] = t
	u.order = append(u.order, t)
}

// addGeneric registers a single-parameter generic definition under "Name`1".
func (u *Universe) addGeneric(name, namespace string, traits Traits) {
	t := &Type{Name: name, Namespace: namespace, Traits: traits, TypeParams: []string{"T"}}
	u.byName[name+"`1"] = t
	u.order = append(u.order, t)
}

// Lookup returns the builtin handle for name. Generic definitions are keyed
// by their arity suffix, e.g. "List`1".
func (u *Universe) Lookup(name string) *Type {
	return u.byName[name]
}

// Generic returns the builtin generic definition with the given name and arity.
func (u *Universe) Generic(name string, arity int) *Type {
	if arity != 1 {
		return nil
	}
	return u.byName[name+"`1"]
}

// Types returns every builtin handle in registration order.
func (u *Universe) Types() []*Type {
	return append([]*Type(nil), u.order...)
}

// Construct builds a constructed generic handle from def and args.
func Construct(def *Type, args ...*Type) *Type {
	return &Type{
		Name:       def.Name,
		Namespace:  def.Namespace,
		Kind:       def.Kind,
		Traits:     def.Traits,
		Base:       def.Base,
		Definition: def,
		Args:       args,
		Properties: def.Properties,
		Doc:        def.Doc,
	}
}

// ArrayOf builds an array handle.
func ArrayOf(elem *Type) *Type {
	return &Type{Name: elem.Name + "[]", Namespace: elem.Namespace, Kind: KindArray, Element: elem}
}

// TypeParam returns an open type-parameter handle.
func TypeParam(name string) *Type {
	return &Type{Name: name, Kind: KindParameter}
}
