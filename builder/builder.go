// Package builder assembles the API contract from introspected service
// definitions: it discovers eligible services and endpoints, infers HTTP
// verbs, composes routes, and classifies parameter locations.
package builder

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sharpness/sharpgen/classify"
	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/introspect"
)

// IntrospectionError reports a handle that could not be introspected, such as
// a type whose dependency the loader failed to resolve. It aborts the build.
type IntrospectionError struct {
	// Service is the service type being built.
	Service string

	// Member is the method or parameter being introspected, if any.
	Member string

	Err error
}

func (e *IntrospectionError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("introspect %s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("introspect %s.%s: %v", e.Service, e.Member, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// Options configures the builder.
type Options struct {
	// Logger receives debug records for skipped methods. Defaults to slog.Default().
	Logger *slog.Logger
}

// Build produces the contract for the given types. Types that are not
// service definitions are ignored. Any introspection or classification
// failure aborts the whole build; a partial assembly is never returned.
func Build(types []*introspect.Type, opts Options) (*contract.Assembly, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &assemblyBuilder{
		classifier: classify.New(),
		logger:     logger,
	}

	asm := &contract.Assembly{}
	for _, t := range types {
		if t == nil || !isService(t) {
			continue
		}
		svc, err := b.buildService(t)
		if err != nil {
			return nil, err
		}
		asm.Services = append(asm.Services, svc)
	}
	return asm, nil
}

// isService reports whether t is a concrete service definition.
func isService(t *introspect.Type) bool {
	return t.Kind == introspect.KindClass && !t.Abstract && t.Has(introspect.TraitService)
}

type assemblyBuilder struct {
	classifier *classify.Classifier
	logger     *slog.Logger
}

func (b *assemblyBuilder) buildService(t *introspect.Type) (*contract.Service, error) {
	for base := t.Base; base != nil; base = base.Base {
		if base.Unresolved {
			return nil, &IntrospectionError{Service: t.Name, Err: fmt.Errorf("%w: base type %s", classify.ErrUnresolved, base.FullName())}
		}
	}

	svc := &contract.Service{
		Name:      t.Name,
		Namespace: t.Namespace,
		Routes:    nonEmpty(t.Routes),
		Doc:       t.Doc,
	}

	seen := make(map[string]bool)
	addType := func(ref *contract.TypeRef) {
		key := ref.Key()
		if !seen[key] {
			seen[key] = true
			svc.Types = append(svc.Types, ref)
		}
	}

	for _, m := range t.Methods {
		if m == nil {
			continue
		}
		if m.Static || m.Inherited || m.NonAction {
			b.logger.Debug("skipping method",
				slog.String("service", t.Name),
				slog.String("method", m.Name),
				slog.String("reason", skipReason(m)),
			)
			continue
		}
		if m.Returns == nil || m.Returns.Unresolved {
			return nil, &IntrospectionError{Service: t.Name, Member: m.Name, Err: fmt.Errorf("%w: return type %s", classify.ErrUnresolved, m.Returns.String())}
		}

		payload, ok := classify.CleanPayloadType(m.Returns)
		if !ok {
			b.logger.Debug("skipping method",
				slog.String("service", t.Name),
				slog.String("method", m.Name),
				slog.String("reason", "no payload"),
			)
			continue
		}

		ep, err := b.buildEndpoint(t, svc, m, payload)
		if err != nil {
			return nil, err
		}
		svc.Endpoints = append(svc.Endpoints, ep)

		addType(ep.Returns)
		for _, p := range ep.Params {
			if !p.IsFile() {
				addType(p.Type)
			}
		}
	}

	return svc, nil
}

func skipReason(m *introspect.Method) string {
	switch {
	case m.Static:
		return "static"
	case m.Inherited:
		return "inherited"
	default:
		return "non-action"
	}
}

func (b *assemblyBuilder) buildEndpoint(owner *introspect.Type, svc *contract.Service, m *introspect.Method, payload *introspect.Type) (*contract.Endpoint, error) {
	returns, err := b.classify(owner, m.Name, payload)
	if err != nil {
		return nil, err
	}

	ep := &contract.Endpoint{
		Name:    m.Name,
		Method:  ResolveVerb(m),
		Returns: returns,
		Doc:     m.Doc,
	}
	ep.Routes = append(append([]string(nil), svc.Routes...), nonEmpty(m.Routes)...)

	placeholders := Placeholders(ep.Routes)
	for _, p := range m.Params {
		if p == nil || p.Type == nil || p.Type.Unresolved {
			name := "<unnamed>"
			if p != nil {
				name = p.Name
			}
			return nil, &IntrospectionError{Service: owner.Name, Member: m.Name + "(" + name + ")", Err: classify.ErrUnresolved}
		}

		loc := ResolveLocation(p, placeholders)
		if loc == contract.LocationFile && (p.FromBody || placeholders[p.Name]) {
			return nil, &classify.ClassificationError{
				Type:    p.Type.String(),
				Context: svc.DisplayName() + "." + m.Name + " parameter " + p.Name,
				Reason:  "file upload parameter is also bound from body or path",
			}
		}

		// File parameters are opaque binary payloads and keep a nil Type.
		param := &contract.Parameter{Name: p.Name, Location: loc}
		if loc != contract.LocationFile {
			if param.Type, err = b.classify(owner, m.Name+"("+p.Name+")", p.Type); err != nil {
				return nil, err
			}
		}
		ep.Params = append(ep.Params, param)
	}

	return ep, nil
}

func (b *assemblyBuilder) classify(owner *introspect.Type, member string, t *introspect.Type) (*contract.TypeRef, error) {
	ref, err := b.classifier.Classify(t)
	if err != nil {
		if errors.Is(err, classify.ErrUnresolved) {
			return nil, &IntrospectionError{Service: owner.Name, Member: member, Err: err}
		}
		return nil, err
	}
	return ref, nil
}

// ResolveVerb returns the HTTP verb for a method: the first explicit verb
// annotation, else POST when the name starts or ends with "Post", else GET.
func ResolveVerb(m *introspect.Method) string {
	for _, v := range m.Verbs {
		if v = strings.TrimSpace(v); v != "" {
			return strings.ToUpper(v)
		}
	}
	if strings.HasPrefix(m.Name, "Post") || strings.HasSuffix(m.Name, "Post") {
		return "POST"
	}
	return "GET"
}

// ResolveLocation classifies a parameter by fixed precedence: file upload,
// explicit body binding, route placeholder, query.
func ResolveLocation(p *introspect.Param, placeholders map[string]bool) contract.Location {
	switch {
	case p.Type != nil && p.Type.Has(introspect.TraitFile):
		return contract.LocationFile
	case p.FromBody:
		return contract.LocationBody
	case placeholders[p.Name]:
		return contract.LocationPath
	default:
		return contract.LocationQuery
	}
}

// Placeholders returns the set of {name} placeholders in the route
// templates, keyed by parameter name (see contract.RouteParam).
func Placeholders(routes []string) map[string]bool {
	names := make(map[string]bool)
	for _, r := range routes {
		for {
			open := strings.IndexByte(r, '{')
			if open < 0 {
				break
			}
			end := strings.IndexByte(r[open:], '}')
			if end < 0 {
				break
			}
			names[contract.RouteParam(r[open+1:open+end])] = true
			r = r[open+end+1:]
		}
	}
	return names
}

func nonEmpty(fragments []string) []string {
	var out []string
	for _, f := range fragments {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
