package provider

import (
	"context"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/sharpness/sharpgen/internal/directive"
	"github.com/sharpness/sharpgen/introspect"
)

// DefaultBaseType is the embedded type name that marks a service definition.
const DefaultBaseType = "Controller"

// SourceProvider extracts service definitions by analyzing Go source code.
type SourceProvider struct{}

// SourceInputOptions configures source-based extraction.
type SourceInputOptions struct {
	// Packages are the Go package patterns to analyze.
	Packages []string

	// Dir is the working directory for package loading. Empty means the
	// current directory.
	Dir string

	// BaseType names the embedded struct that marks a service definition.
	// Defaults to DefaultBaseType.
	BaseType string
}

// Load analyzes the packages and returns their service definitions in
// source order.
//
// A service definition is an exported struct that embeds BaseType, directly
// or through another struct. Exported methods declared on it are endpoint
// candidates; promoted methods are reported as inherited.
func (p *SourceProvider) Load(ctx context.Context, opts SourceInputOptions) ([]*introspect.Type, error) {
	if len(opts.Packages) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}
	base := opts.BaseType
	if base == "" {
		base = DefaultBaseType
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(cfg, opts.Packages...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}

	ex := &extractor{
		universe:   introspect.NewUniverse(),
		base:       base,
		types:      make(map[string]*introspect.Type),
		services:   make(map[string]*introspect.Type),
		directives: make(directive.Result),
		docs:       make(map[string]string),
	}
	for _, pkg := range pkgs {
		for _, f := range pkg.Syntax {
			found, err := directive.ParseFile(pkg.Fset, f)
			if err != nil {
				return nil, err
			}
			for key, set := range found {
				ex.directives[pkg.PkgPath+"."+key] = set
			}
			collectDocs(f, pkg.PkgPath, ex.docs)
		}
	}

	var out []*introspect.Type
	for _, pkg := range pkgs {
		for _, tn := range declaredTypes(pkg.Types) {
			named, ok := tn.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 || !ex.embedsBase(named, nil) {
				continue
			}
			t, err := ex.service(named)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", pkg.PkgPath, tn.Name(), err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

type extractor struct {
	universe *introspect.Universe
	base     string

	types    map[string]*introspect.Type // key: pkgPath.Name
	services map[string]*introspect.Type

	directives directive.Result // key: pkgPath.Type[.Method]
	docs       map[string]string
}

func typeKey(obj types.Object) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

func pkgPath(obj types.Object) string {
	if obj.Pkg() == nil {
		return ""
	}
	return obj.Pkg().Path()
}

// embedsBase reports whether the struct underlying n embeds the base type.
func (ex *extractor) embedsBase(n *types.Named, seen map[*types.Named]bool) bool {
	st, ok := n.Underlying().(*types.Struct)
	if !ok || !n.Obj().Exported() {
		return false
	}
	if seen == nil {
		seen = make(map[*types.Named]bool)
	}
	if seen[n] {
		return false
	}
	seen[n] = true

	for i := 0; i < st.NumFields(); i++ {
		if emb := embedded(st.Field(i)); emb != nil {
			if emb.Obj().Name() == ex.base || ex.embedsBase(emb, seen) {
				return true
			}
		}
	}
	return false
}

// embedded returns the named type of an embedded field, dereferencing pointers.
func embedded(f *types.Var) *types.Named {
	if !f.Embedded() {
		return nil
	}
	t := types.Unalias(f.Type())
	if ptr, ok := t.(*types.Pointer); ok {
		t = types.Unalias(ptr.Elem())
	}
	n, _ := t.(*types.Named)
	return n
}

func (ex *extractor) service(n *types.Named) (*introspect.Type, error) {
	key := typeKey(n.Obj())
	if t, ok := ex.services[key]; ok {
		return t, nil
	}
	dirs := ex.directives[key]
	t := &introspect.Type{
		Name:      n.Obj().Name(),
		Namespace: pkgPath(n.Obj()),
		Kind:      introspect.KindClass,
		Abstract:  dirs.Has(directive.KindAbstract),
		Routes:    dirs.Args(directive.KindRoute),
		Doc:       ex.docs[key],
	}
	ex.services[key] = t

	st := n.Underlying().(*types.Struct)
	for i := 0; i < st.NumFields(); i++ {
		emb := embedded(st.Field(i))
		switch {
		case emb == nil:
			continue
		case emb.Obj().Name() == ex.base:
			t.Base = ex.universe.Lookup("Controller")
		case ex.embedsBase(emb, nil):
			b, err := ex.service(emb)
			if err != nil {
				return nil, err
			}
			t.Base = b
		default:
			continue
		}
		break
	}

	for i := 0; i < n.NumMethods(); i++ {
		fn := n.Method(i)
		if !fn.Exported() {
			continue
		}
		m, err := ex.method(n, fn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		t.Methods = append(t.Methods, m)
	}

	// Signatures of promoted methods are not inspected.
	mset := types.NewMethodSet(types.NewPointer(n))
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		if len(sel.Index()) > 1 && sel.Obj().Exported() {
			t.Methods = append(t.Methods, &introspect.Method{
				Name:      sel.Obj().Name(),
				Inherited: true,
				Returns:   ex.universe.Lookup("Task"),
			})
		}
	}
	return t, nil
}

func (ex *extractor) method(owner *types.Named, fn *types.Func) (*introspect.Method, error) {
	key := typeKey(owner.Obj()) + "." + fn.Name()
	dirs := ex.directives[key]
	m := &introspect.Method{
		Name:      fn.Name(),
		Routes:    dirs.Args(directive.KindRoute),
		Verbs:     dirs.Args(directive.KindMethod),
		NonAction: dirs.Has(directive.KindNonAction),
		Doc:       ex.docs[key],
	}

	sig := fn.Type().(*types.Signature)
	bodies := dirs.Args(directive.KindBody)
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		if i == 0 && isNamed(v.Type(), "context", "Context") {
			continue
		}
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		pt, err := ex.convert(v.Type())
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		m.Params = append(m.Params, &introspect.Param{Name: name, Type: pt, FromBody: slices.Contains(bodies, name)})
	}
	for _, b := range bodies {
		if !slices.ContainsFunc(m.Params, func(p *introspect.Param) bool { return p.Name == b }) {
			return nil, fmt.Errorf("//sharp:body names unknown parameter %s", b)
		}
	}

	results := sig.Results()
	n := results.Len()
	if n > 0 && isError(results.At(n-1).Type()) {
		n--
	}
	switch n {
	case 0:
		m.Returns = ex.universe.Lookup("Task")
	case 1:
		rt, err := ex.convert(results.At(0).Type())
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		m.Returns = rt
	default:
		return nil, fmt.Errorf("multiple results are not supported")
	}
	return m, nil
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func isNamed(t types.Type, pkg, name string) bool {
	n, ok := types.Unalias(t).(*types.Named)
	return ok && n.Obj().Name() == name && pkgPath(n.Obj()) == pkg
}

// convert maps a Go type to a type handle.
func (ex *extractor) convert(t types.Type) (*introspect.Type, error) {
	switch typ := t.(type) {
	case *types.Alias:
		return ex.convert(types.Unalias(typ))

	case *types.Basic:
		return ex.basic(typ)

	case *types.Pointer:
		if isNamed(typ.Elem(), "mime/multipart", "FileHeader") {
			return ex.universe.Lookup("IFormFile"), nil
		}
		elem, err := ex.convert(typ.Elem())
		if err != nil {
			return nil, err
		}
		if elem.Kind == introspect.KindPrimitive || elem.Kind == introspect.KindEnum {
			return introspect.Construct(ex.universe.Generic("Nullable", 1), elem), nil
		}
		return elem, nil

	case *types.Slice:
		if basic, ok := typ.Elem().(*types.Basic); ok && basic.Kind() == types.Byte {
			return ex.universe.Lookup("string"), nil
		}
		elem, err := ex.convert(typ.Elem())
		if err != nil {
			return nil, err
		}
		return introspect.Construct(ex.universe.Generic("List", 1), elem), nil

	case *types.Array:
		elem, err := ex.convert(typ.Elem())
		if err != nil {
			return nil, err
		}
		return introspect.ArrayOf(elem), nil

	case *types.Named:
		return ex.named(typ)

	case *types.TypeParam:
		return introspect.TypeParam(typ.Obj().Name()), nil

	case *types.Interface:
		if typ.Empty() {
			return ex.universe.Lookup("object"), nil
		}
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

var basicNames = map[types.BasicKind]string{
	types.Bool:    "bool",
	types.String:  "string",
	types.Int:     "long",
	types.Int8:    "sbyte",
	types.Int16:   "short",
	types.Int32:   "int",
	types.Int64:   "long",
	types.Uint:    "ulong",
	types.Uint8:   "byte",
	types.Uint16:  "ushort",
	types.Uint32:  "uint",
	types.Uint64:  "ulong",
	types.Uintptr: "ulong",
	types.Float32: "float",
	types.Float64: "double",
}

func (ex *extractor) basic(b *types.Basic) (*introspect.Type, error) {
	name, ok := basicNames[b.Kind()]
	if !ok {
		return nil, fmt.Errorf("unsupported basic type %s", b)
	}
	return ex.universe.Lookup(name), nil
}

// wrappers are named types that keep the traits of the builtin of the same name.
var wrappers = []string{"Task", "ValueTask", "ActionResult", "IActionResult"}

func (ex *extractor) named(n *types.Named) (*introspect.Type, error) {
	obj := n.Obj()
	switch typeKey(obj) {
	case "time.Time":
		return ex.universe.Lookup("DateTime"), nil
	case "time.Duration":
		return ex.universe.Lookup("TimeSpan"), nil
	case "mime/multipart.File", "mime/multipart.FileHeader":
		return ex.universe.Lookup("IFormFile"), nil
	}

	if targs := n.TypeArgs(); targs.Len() > 0 {
		def, err := ex.named(n.Origin())
		if err != nil {
			return nil, err
		}
		args := make([]*introspect.Type, targs.Len())
		for i := range args {
			if args[i], err = ex.convert(targs.At(i)); err != nil {
				return nil, err
			}
		}
		return introspect.Construct(def, args...), nil
	}

	if slices.Contains(wrappers, obj.Name()) {
		if arity := n.TypeParams().Len(); arity > 0 {
			if w := ex.universe.Generic(obj.Name(), arity); w != nil {
				return w, nil
			}
		} else if w := ex.universe.Lookup(obj.Name()); w != nil {
			return w, nil
		}
	}

	key := typeKey(obj)
	if t, ok := ex.types[key]; ok {
		return t, nil
	}

	switch u := n.Underlying().(type) {
	case *types.Struct:
		t := &introspect.Type{
			Name:      obj.Name(),
			Namespace: pkgPath(obj),
			Kind:      introspect.KindClass,
			Doc:       ex.docs[key],
		}
		for i := 0; i < n.TypeParams().Len(); i++ {
			t.TypeParams = append(t.TypeParams, n.TypeParams().At(i).Obj().Name())
		}
		ex.types[key] = t
		props, err := ex.properties(u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", obj.Name(), err)
		}
		t.Properties = props
		return t, nil

	case *types.Basic:
		if members := enumMembers(obj, n); len(members) > 0 {
			t := &introspect.Type{
				Name:      obj.Name(),
				Namespace: pkgPath(obj),
				Kind:      introspect.KindEnum,
				Members:   members,
				Doc:       ex.docs[key],
			}
			ex.types[key] = t
			return t, nil
		}
		return ex.basic(u)

	case *types.Interface:
		return ex.universe.Lookup("object"), nil
	}
	return ex.convert(n.Underlying())
}

// properties maps exported fields to properties. Embedded structs without a
// json name are flattened, as encoding/json does.
func (ex *extractor) properties(st *types.Struct) ([]*introspect.Property, error) {
	var props []*introspect.Property
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		name, _, _ := strings.Cut(reflect.StructTag(st.Tag(i)).Get("json"), ",")
		if name == "-" {
			continue
		}

		if emb := embedded(f); emb != nil && name == "" {
			if inner, ok := emb.Underlying().(*types.Struct); ok {
				flat, err := ex.properties(inner)
				if err != nil {
					return nil, err
				}
				props = append(props, flat...)
				continue
			}
		}
		if !f.Exported() {
			continue
		}

		ft, err := ex.convert(f.Type())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		if name == "" {
			name = f.Name()
		}
		props = append(props, &introspect.Property{Name: f.Name(), Type: ft, JSONName: name})
	}
	return props, nil
}

// enumMembers returns the constants of type n declared in its package, in
// source order. String constants contribute their value, others their name.
func enumMembers(obj *types.TypeName, n *types.Named) []string {
	if obj.Pkg() == nil {
		return nil
	}
	scope := obj.Pkg().Scope()
	var consts []*types.Const
	for _, name := range scope.Names() {
		if c, ok := scope.Lookup(name).(*types.Const); ok && types.Identical(c.Type(), n) {
			consts = append(consts, c)
		}
	}
	sort.Slice(consts, func(i, j int) bool { return consts[i].Pos() < consts[j].Pos() })

	members := make([]string, len(consts))
	for i, c := range consts {
		if c.Val().Kind() == constant.String {
			members[i] = constant.StringVal(c.Val())
		} else {
			members[i] = c.Name()
		}
	}
	return members
}

// declaredTypes returns the exported type names of pkg in source order.
func declaredTypes(pkg *types.Package) []*types.TypeName {
	scope := pkg.Scope()
	var out []*types.TypeName
	for _, name := range scope.Names() {
		if tn, ok := scope.Lookup(name).(*types.TypeName); ok && tn.Exported() {
			out = append(out, tn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos() < out[j].Pos() })
	return out
}

// collectDocs records doc comments of type and method declarations, keyed
// like the directive results. Directive lines are dropped by ast.CommentGroup.Text.
func collectDocs(f *ast.File, pkg string, docs map[string]string) {
	add := func(key string, doc *ast.CommentGroup) {
		if doc == nil {
			return
		}
		if text := strings.TrimSpace(doc.Text()); text != "" {
			docs[pkg+"."+key] = text
		}
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
				add(ts.Name.Name, doc)
			}
		case *ast.FuncDecl:
			if decl.Recv != nil && len(decl.Recv.List) > 0 {
				add(directive.Key(directive.Receiver(decl.Recv.List[0].Type), decl.Name.Name), decl.Doc)
			}
		}
	}
}
