// Package openapi renders a contract as an OpenAPI 3 discovery document.
package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/render"
)

// Options configures the target.
type Options struct {
	Title   string `schema:"title"`
	Version string `schema:"version"`

	// File is the output file name. Defaults to "openapi.json".
	File string `schema:"file" validate:"omitempty,endswith=.json"`
}

// Target is the OpenAPI render target. Everything is emitted from Finish
// into a single document.
type Target struct {
	opts Options
}

// New returns an OpenAPI target.
func New(opts Options) *Target {
	if opts.Title == "" {
		opts.Title = "API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.File == "" {
		opts.File = "openapi.json"
	}
	return &Target{opts: opts}
}

var _ render.Target = (*Target)(nil)

func (t *Target) Name() string { return "openapi" }

func (t *Target) Dirs() []string { return nil }

func (t *Target) ModelFile(*contract.Model, []contract.Identity) (render.File, error) {
	return render.File{}, nil
}

func (t *Target) ServiceFile(*contract.Service, []contract.Identity) (render.File, error) {
	return render.File{}, nil
}

func (t *Target) Finish(st *render.State) ([]render.File, error) {
	doc, err := t.Document(st.Services)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return []render.File{{Path: t.opts.File, Content: append(data, '\n')}}, nil
}

// Document builds the OpenAPI document for the given services.
func (t *Target) Document(services []*contract.Service) (*openapi3.T, error) {
	b := &schemaBuilder{schemas: make(openapi3.Schemas)}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: t.opts.Title, Version: t.opts.Version},
		Paths:   openapi3.NewPaths(),
	}

	for _, svc := range services {
		display := svc.DisplayName()
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: display, Description: svc.Doc})
		for _, ep := range svc.Endpoints {
			op, err := b.operation(display, ep)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", display, ep.Name, err)
			}
			path := render.RouteURL(ep.Routes, func(name string) string { return "{" + name + "}" })
			item := doc.Paths.Value(path)
			if item == nil {
				item = &openapi3.PathItem{}
				doc.Paths.Set(path, item)
			}
			if item.GetOperation(ep.Method) != nil {
				return nil, fmt.Errorf("%s.%s: duplicate operation %s %s", display, ep.Name, ep.Method, path)
			}
			item.SetOperation(ep.Method, op)
		}
	}

	components := openapi3.NewComponents()
	components.Schemas = b.schemas
	doc.Components = &components
	return doc, nil
}

type schemaBuilder struct {
	schemas openapi3.Schemas
}

func (b *schemaBuilder) operation(service string, ep *contract.Endpoint) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.OperationID = service + "_" + render.StripAsync(ep.Name)
	op.Tags = []string{service}
	op.Description = ep.Doc

	var files []string
	for _, p := range ep.Params {
		switch p.Location {
		case contract.LocationFile:
			files = append(files, p.Name)
		case contract.LocationBody:
			ref, err := b.schema(p.Type, nil)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
			op.RequestBody = &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref),
			}
		default:
			ref, err := b.schema(p.Type, nil)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
			param := openapi3.NewQueryParameter(p.Name)
			if p.Location == contract.LocationPath {
				param = openapi3.NewPathParameter(p.Name)
			}
			param.Schema = ref
			op.AddParameter(param)
		}
	}

	if len(files) > 0 {
		form := openapi3.NewObjectSchema()
		for _, name := range files {
			form.WithProperty(name, openapi3.NewStringSchema().WithFormat("binary"))
		}
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithFormDataSchema(form),
		}
	}

	resp := openapi3.NewResponse().WithDescription("Success")
	if ep.Returns != nil {
		ref, err := b.schema(ep.Returns, nil)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		resp = resp.WithJSONSchemaRef(ref)
	}
	op.AddResponse(200, resp)
	return op, nil
}

// schema maps r to a schema. bindings substitutes type parameters while a
// generic definition is being instantiated.
func (b *schemaBuilder) schema(r *contract.TypeRef, bindings map[string]*openapi3.SchemaRef) (*openapi3.SchemaRef, error) {
	switch r.Kind {
	case contract.KindPrimitive:
		return openapi3.NewSchemaRef("", primitive(r.Primitive)), nil

	case contract.KindNullable:
		inner, err := b.schema(r.Elem, bindings)
		if err != nil {
			return nil, err
		}
		if inner.Ref != "" {
			return openapi3.NewSchemaRef("", &openapi3.Schema{Nullable: true, AllOf: openapi3.SchemaRefs{inner}}), nil
		}
		s := *inner.Value
		s.Nullable = true
		return openapi3.NewSchemaRef("", &s), nil

	case contract.KindArray:
		elem, err := b.schema(r.Elem, bindings)
		if err != nil {
			return nil, err
		}
		s := openapi3.NewArraySchema()
		s.Items = elem
		return openapi3.NewSchemaRef("", s), nil

	case contract.KindModel, contract.KindEnum:
		name := r.Model.ID.Name
		if _, ok := b.schemas[name]; !ok {
			if err := b.declare(name, r.Model, nil); err != nil {
				return nil, err
			}
		}
		return b.ref(name), nil

	case contract.KindGeneric:
		args := make(map[string]*openapi3.SchemaRef, len(r.Args))
		names := make([]string, len(r.Args))
		for i, a := range r.Args {
			ref, err := b.schema(a, bindings)
			if err != nil {
				return nil, err
			}
			if i < len(r.Model.TypeParams) {
				args[r.Model.TypeParams[i]] = ref
			}
			names[i] = schemaName(a)
		}
		name := r.Model.ID.Name + "Of" + strings.Join(names, "And")
		if _, ok := b.schemas[name]; !ok {
			if err := b.declare(name, r.Model, args); err != nil {
				return nil, err
			}
		}
		return b.ref(name), nil

	case contract.KindTypeParam:
		if ref, ok := bindings[r.Param]; ok {
			return ref, nil
		}
		return nil, fmt.Errorf("unbound type parameter %s", r.Param)
	}
	return nil, fmt.Errorf("unsupported type %s: %s", r.Source, r.Reason)
}

// declare adds the component schema for m under name. The entry is
// reserved before fields are mapped so recursive models terminate.
func (b *schemaBuilder) declare(name string, m *contract.Model, bindings map[string]*openapi3.SchemaRef) error {
	if m.IsEnum() {
		s := openapi3.NewStringSchema()
		for _, member := range m.Members {
			s.Enum = append(s.Enum, member)
		}
		s.Description = m.Doc
		b.schemas[name] = openapi3.NewSchemaRef("", s)
		return nil
	}

	s := openapi3.NewObjectSchema()
	s.Description = m.Doc
	b.schemas[name] = openapi3.NewSchemaRef("", s)
	for _, f := range render.SortedFields(m) {
		ref, err := b.schema(f.Type, bindings)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", m.ID.Name, f.Name, err)
		}
		wire := f.JSONName
		if wire == "" {
			wire = render.Camel(f.Name)
		}
		s.Properties[wire] = ref
		if f.Type.Kind != contract.KindNullable {
			s.Required = append(s.Required, wire)
		}
	}
	sort.Strings(s.Required)
	return nil
}

// ref points at the declared component name, carrying its schema so the
// in-memory document resolves without a loader pass.
func (b *schemaBuilder) ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, b.schemas[name].Value)
}

// schemaName renders a type argument for use in an instantiated component name.
func schemaName(r *contract.TypeRef) string {
	switch r.Kind {
	case contract.KindPrimitive:
		return render.Pascal(r.Primitive.String())
	case contract.KindNullable:
		return "Nullable" + schemaName(r.Elem)
	case contract.KindArray:
		return "ArrayOf" + schemaName(r.Elem)
	case contract.KindGeneric:
		names := make([]string, len(r.Args))
		for i, a := range r.Args {
			names[i] = schemaName(a)
		}
		return r.Model.ID.Name + "Of" + strings.Join(names, "And")
	case contract.KindTypeParam:
		return r.Param
	}
	if r.Model != nil {
		return r.Model.ID.Name
	}
	return "Unsupported"
}

func primitive(p contract.Primitive) *openapi3.Schema {
	switch p {
	case contract.PrimitiveBool:
		return openapi3.NewBoolSchema()
	case contract.PrimitiveByte, contract.PrimitiveSByte, contract.PrimitiveInt16,
		contract.PrimitiveUInt16, contract.PrimitiveInt32:
		return openapi3.NewInt32Schema()
	case contract.PrimitiveUInt32, contract.PrimitiveInt64, contract.PrimitiveUInt64:
		return openapi3.NewInt64Schema()
	case contract.PrimitiveFloat32:
		return openapi3.NewFloat64Schema().WithFormat("float")
	case contract.PrimitiveFloat64, contract.PrimitiveDecimal:
		return openapi3.NewFloat64Schema()
	case contract.PrimitiveDateTime, contract.PrimitiveDateTimeOffset:
		return openapi3.NewDateTimeSchema()
	case contract.PrimitiveGuid:
		return openapi3.NewUUIDSchema()
	case contract.PrimitiveTimeSpan:
		return openapi3.NewStringSchema().WithFormat("duration")
	case contract.PrimitiveObject:
		return openapi3.NewObjectSchema()
	default:
		return openapi3.NewStringSchema()
	}
}
