// Package angular renders a contract as an Angular client: one injectable
// service per service definition, one TypeScript file per model, and an
// NgModule wiring them together.
package angular

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/render"
)

//go:embed runtime/api.service.ts
var runtimeSource string

// moduleToken is replaced with the module name in the runtime source.
const moduleToken = "ApiModuleName"

const (
	modelsDir   = "models"
	servicesDir = "services"
)

// Options configures the target.
type Options struct {
	// Module is the NgModule class name. Defaults to "ApiModule".
	Module string `schema:"module" validate:"omitempty,alphanum"`
}

// Target is the Angular render target.
type Target struct {
	moduleName string
}

// New returns an Angular target.
func New(opts Options) *Target {
	module := opts.Module
	if module == "" {
		module = "ApiModule"
	}
	return &Target{moduleName: module}
}

var _ render.Target = (*Target)(nil)

func (t *Target) Name() string { return "angular" }

func (t *Target) Dirs() []string { return []string{modelsDir, servicesDir} }

// TypeName maps a type reference to a TypeScript type expression.
func TypeName(r *contract.TypeRef) (string, error) {
	if r == nil {
		return "void", nil
	}
	switch r.Kind {
	case contract.KindPrimitive:
		switch {
		case r.Primitive.IsNumeric():
			return "number", nil
		case r.Primitive == contract.PrimitiveBool:
			return "boolean", nil
		case r.Primitive == contract.PrimitiveDateTime, r.Primitive == contract.PrimitiveDateTimeOffset:
			return "Date", nil
		case r.Primitive == contract.PrimitiveObject:
			return "object", nil
		default:
			return "string", nil
		}
	case contract.KindNullable:
		inner, err := TypeName(r.Elem)
		if err != nil {
			return "", err
		}
		return inner + "|null", nil
	case contract.KindArray:
		elem, err := TypeName(r.Elem)
		if err != nil {
			return "", err
		}
		if r.Elem.Kind == contract.KindNullable {
			elem = "(" + elem + ")"
		}
		return elem + "[]", nil
	case contract.KindModel, contract.KindEnum:
		return r.Model.ID.Name, nil
	case contract.KindGeneric:
		args := make([]string, len(r.Args))
		for i, a := range r.Args {
			s, err := TypeName(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return r.Model.ID.Name + "<" + strings.Join(args, ", ") + ">", nil
	case contract.KindTypeParam:
		return r.Param, nil
	}
	return "", fmt.Errorf("unsupported type %s: %s", r.Source, r.Reason)
}

func paramType(p *contract.Parameter) (string, error) {
	if p.IsFile() {
		return "Blob", nil
	}
	return TypeName(p.Type)
}

// MethodName maps an endpoint name to the service method name.
func MethodName(name string) string {
	return sanitizeIdentifier(render.Camel(render.StripAsync(name)))
}

func serviceFileName(display string) string {
	return strings.ToLower(display) + ".service"
}

func (t *Target) ServiceFile(svc *contract.Service, imports []contract.Identity) (render.File, error) {
	display := svc.DisplayName()
	var buf bytes.Buffer

	buf.WriteString("import { Observable } from 'rxjs';\n")
	buf.WriteString("import { Injectable } from '@angular/core';\n")
	buf.WriteString("import { ApiService } from '../api.service';\n\n")
	for _, name := range render.SortedNames(imports) {
		fmt.Fprintf(&buf, "import { %s } from '../models/%s';\n", name, name)
	}

	buf.WriteString("\n@Injectable()\n")
	fmt.Fprintf(&buf, "export class %sService {\n\n", display)
	buf.WriteString("    constructor(private builder: ApiService) { }\n\n")

	for _, ep := range svc.Endpoints {
		if err := t.endpoint(&buf, ep); err != nil {
			return render.File{}, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
	}
	buf.WriteString("}\n")

	return render.File{
		Path:    servicesDir + "/" + serviceFileName(display) + ".ts",
		Content: buf.Bytes(),
	}, nil
}

func (t *Target) endpoint(buf *bytes.Buffer, ep *contract.Endpoint) error {
	returns, err := TypeName(ep.Returns)
	if err != nil {
		return err
	}

	params := make([]string, len(ep.Params))
	for i, p := range ep.Params {
		typ, err := paramType(p)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		params[i] = sanitizeIdentifier(p.Name) + ": " + typ
	}

	url := render.RouteURL(ep.Routes, func(name string) string {
		return "${encodeURIComponent(String(" + sanitizeIdentifier(name) + "))}"
	})

	fmt.Fprintf(buf, "    public %s(%s): Observable<%s> {\n", MethodName(ep.Name), strings.Join(params, ", "), returns)
	fmt.Fprintf(buf, "        const url = `%s`;\n", url)
	fmt.Fprintf(buf, "        return this.builder.request<%s>(url, '%s')\n", returns, ep.Method)
	for _, p := range ep.Params {
		v := sanitizeIdentifier(p.Name)
		switch p.Location {
		case contract.LocationFile:
			fmt.Fprintf(buf, "            .addFileParam('%s', %s)\n", p.Name, v)
		case contract.LocationBody:
			fmt.Fprintf(buf, "            .addBodyParam(%s)\n", v)
		case contract.LocationQuery:
			fmt.Fprintf(buf, "            .addQueryParam('%s', %s)\n", p.Name, v)
		}
	}
	buf.WriteString("            .build();\n")
	buf.WriteString("    }\n\n")
	return nil
}

func (t *Target) ModelFile(m *contract.Model, imports []contract.Identity) (render.File, error) {
	var buf bytes.Buffer
	name := m.ID.Name

	if m.IsEnum() {
		fmt.Fprintf(&buf, "export enum %s {\n", name)
		for _, member := range m.Members {
			fmt.Fprintf(&buf, "    %s = '%s',\n", member, member)
		}
		buf.WriteString("}\n")
		return render.File{Path: modelsDir + "/" + name + ".ts", Content: buf.Bytes()}, nil
	}

	for _, imp := range render.SortedNames(imports) {
		fmt.Fprintf(&buf, "import { %s } from './%s';\n", imp, imp)
	}

	typeParams := ""
	if m.IsGenericDefinition() {
		typeParams = "<" + strings.Join(m.TypeParams, ", ") + ">"
	}
	fmt.Fprintf(&buf, "\nexport interface %s%s {\n\n", name, typeParams)
	for _, f := range render.SortedFields(m) {
		typ, err := TypeName(f.Type)
		if err != nil {
			return render.File{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fmt.Fprintf(&buf, "    %s: %s;\n", propertyKey(FieldName(f)), typ)
	}
	buf.WriteString("\n}\n")

	return render.File{Path: modelsDir + "/" + name + ".ts", Content: buf.Bytes()}, nil
}

// FieldName returns the wire name of a model field: the serialization
// override when present, else the camelCase field name.
func FieldName(f contract.Field) string {
	if f.JSONName != "" {
		return f.JSONName
	}
	return render.Camel(f.Name)
}

func (t *Target) Finish(st *render.State) ([]render.File, error) {
	return []render.File{
		{Path: "api.module.ts", Content: t.moduleFile(st)},
		{Path: "index.ts", Content: t.index(st)},
		{Path: "api.service.ts", Content: []byte(strings.ReplaceAll(runtimeSource, moduleToken, t.moduleName))},
	}, nil
}

func (t *Target) moduleFile(st *render.State) []byte {
	var buf bytes.Buffer
	buf.WriteString("import { NgModule } from '@angular/core';\n")
	buf.WriteString("import { HttpClientModule } from '@angular/common/http';\n")
	buf.WriteString("import { ApiService } from './api.service';\n\n")
	for _, svc := range st.Services {
		d := svc.DisplayName()
		fmt.Fprintf(&buf, "import { %sService } from './services/%s';\n", d, serviceFileName(d))
	}
	buf.WriteString("\n@NgModule({\n")
	buf.WriteString("    imports: [HttpClientModule],\n")
	buf.WriteString("    declarations: [],\n")
	buf.WriteString("    exports: [],\n")
	buf.WriteString("    providers: [\n")
	for _, svc := range st.Services {
		fmt.Fprintf(&buf, "        %sService,\n", svc.DisplayName())
	}
	buf.WriteString("        ApiService\n")
	buf.WriteString("    ]\n")
	buf.WriteString("})\n")
	fmt.Fprintf(&buf, "export class %s {\n}\n", t.moduleName)
	return buf.Bytes()
}

func (t *Target) index(st *render.State) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "export { %s } from './api.module';\n", t.moduleName)
	buf.WriteString("export { ApiService, API_BASE_URL } from './api.service';\n\n")
	for _, svc := range st.Services {
		d := svc.DisplayName()
		fmt.Fprintf(&buf, "export { %sService } from './services/%s';\n", d, serviceFileName(d))
	}
	buf.WriteString("\n")
	for _, m := range st.Models {
		fmt.Fprintf(&buf, "export { %s } from './models/%s';\n", m.ID.Name, m.ID.Name)
	}
	return buf.Bytes()
}
