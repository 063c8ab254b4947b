// Package csharp renders a contract as a .NET client built on request
// builders: one service class per service definition, one model class per
// model, and the ApiService runtime.
package csharp

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/render"
)

//go:embed runtime/ApiService.cs
var runtimeSource string

// namespaceToken is replaced with the root namespace in the runtime source.
const namespaceToken = "ApiServiceNamespace"

const (
	modelsDir   = "Models"
	servicesDir = "Services"
)

// Options configures the target.
type Options struct {
	// Namespace is the root namespace of the generated client.
	Namespace string `schema:"namespace" validate:"required,namespace"`
}

// Target is the C# render target.
type Target struct {
	namespace string
}

// New returns a C# target.
func New(opts Options) *Target {
	return &Target{namespace: opts.Namespace}
}

var _ render.Target = (*Target)(nil)

func (t *Target) Name() string { return "csharp" }

func (t *Target) Dirs() []string { return []string{modelsDir, servicesDir} }

// TypeName maps a type reference to a C# type expression.
func TypeName(r *contract.TypeRef) (string, error) {
	if r == nil {
		return "object", nil
	}
	switch r.Kind {
	case contract.KindPrimitive:
		return r.Primitive.String(), nil
	case contract.KindNullable:
		inner, err := TypeName(r.Elem)
		if err != nil {
			return "", err
		}
		return inner + "?", nil
	case contract.KindArray:
		elem, err := TypeName(r.Elem)
		if err != nil {
			return "", err
		}
		return "List<" + elem + ">", nil
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

// MethodName maps an endpoint name to the service method name.
func MethodName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), "async") {
		return name
	}
	return name + render.AsyncSuffix
}

func (t *Target) ServiceFile(svc *contract.Service, imports []contract.Identity) (render.File, error) {
	display := svc.DisplayName()
	var buf bytes.Buffer

	buf.WriteString("using System;\n")
	buf.WriteString("using System.Collections.Generic;\n")
	if len(imports) > 0 {
		fmt.Fprintf(&buf, "using %s.Models;\n", t.namespace)
	}
	fmt.Fprintf(&buf, "\nnamespace %s.Services\n{\n", t.namespace)
	fmt.Fprintf(&buf, "    public class %sService : ApiService\n    {\n", display)

	for i, ep := range svc.Endpoints {
		if i > 0 {
			buf.WriteString("\n")
		}
		if err := t.endpoint(&buf, ep); err != nil {
			return render.File{}, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
	}

	buf.WriteString("    }\n}\n")
	return render.File{
		Path:    servicesDir + "/" + display + "Service.cs",
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
		typ := "ApiFile"
		if !p.IsFile() {
			if typ, err = TypeName(p.Type); err != nil {
				return fmt.Errorf("parameter %s: %w", p.Name, err)
			}
		}
		params[i] = typ + " " + identifier(p.Name)
	}

	url := render.RouteURL(ep.Routes, func(name string) string {
		return "{" + identifier(name) + "}"
	})

	fmt.Fprintf(buf, "        public ApiTask<%s> %s(%s)\n        {\n", returns, MethodName(ep.Name), strings.Join(params, ", "))
	fmt.Fprintf(buf, "            string url = $\"%s\";\n", url)
	fmt.Fprintf(buf, "            return ApiTask<%s>.Create(this, \"%s\", url)", returns, ep.Method)
	for _, p := range ep.Params {
		v := identifier(p.Name)
		switch p.Location {
		case contract.LocationFile:
			fmt.Fprintf(buf, "\n                .AddFormParam(\"%s\", %s)", p.Name, v)
		case contract.LocationBody:
			fmt.Fprintf(buf, "\n                .AddBodyParam(%s)", v)
		case contract.LocationQuery:
			fmt.Fprintf(buf, "\n                .AddQueryParam(\"%s\", %s)", p.Name, v)
		}
	}
	buf.WriteString(";\n        }\n")
	return nil
}

func (t *Target) ModelFile(m *contract.Model, imports []contract.Identity) (render.File, error) {
	var buf bytes.Buffer
	name := m.ID.Name

	if m.IsEnum() {
		buf.WriteString("using Newtonsoft.Json;\n")
		buf.WriteString("using Newtonsoft.Json.Converters;\n\n")
		fmt.Fprintf(&buf, "namespace %s.Models\n{\n", t.namespace)
		buf.WriteString("    [JsonConverter(typeof(StringEnumConverter))]\n")
		fmt.Fprintf(&buf, "    public enum %s\n    {\n", name)
		for _, member := range m.Members {
			fmt.Fprintf(&buf, "        %s,\n", member)
		}
		buf.WriteString("    }\n}\n")
		return render.File{Path: modelsDir + "/" + name + ".cs", Content: buf.Bytes()}, nil
	}

	buf.WriteString("using System;\n")
	buf.WriteString("using System.Collections.Generic;\n")
	buf.WriteString("using Newtonsoft.Json;\n\n")
	fmt.Fprintf(&buf, "namespace %s.Models\n{\n", t.namespace)

	typeParams := ""
	if m.IsGenericDefinition() {
		typeParams = "<" + strings.Join(m.TypeParams, ", ") + ">"
	}
	fmt.Fprintf(&buf, "    public class %s%s\n    {\n", name, typeParams)
	for i, f := range render.SortedFields(m) {
		typ, err := TypeName(f.Type)
		if err != nil {
			return render.File{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "        [JsonProperty(%q)]\n", wireName(f))
		fmt.Fprintf(&buf, "        public %s %s { get; set; }\n", typ, identifier(render.Pascal(f.Name)))
	}
	buf.WriteString("    }\n}\n")

	return render.File{Path: modelsDir + "/" + name + ".cs", Content: buf.Bytes()}, nil
}

func wireName(f contract.Field) string {
	if f.JSONName != "" {
		return f.JSONName
	}
	return render.Camel(f.Name)
}

func (t *Target) Finish(st *render.State) ([]render.File, error) {
	return []render.File{{
		Path:    "ApiService.cs",
		Content: []byte(strings.ReplaceAll(runtimeSource, namespaceToken, t.namespace)),
	}}, nil
}
