package contract

import "strings"

// ServiceSuffix is stripped from service type names to form display names.
const ServiceSuffix = "Controller"

// Assembly is the complete contract of one server.
type Assembly struct {
	// Services are the eligible service definitions in input order.
	Services []*Service
}

// FindService looks up a service by display name. Returns nil if not found.
func (a *Assembly) FindService(name string) *Service {
	for _, s := range a.Services {
		if s.DisplayName() == name {
			return s
		}
	}
	return nil
}

// EndpointCount returns the number of endpoints across all services.
func (a *Assembly) EndpointCount() int {
	n := 0
	for _, s := range a.Services {
		n += len(s.Endpoints)
	}
	return n
}

// Service is a group of related endpoints (a controller).
type Service struct {
	// Name is the source type name (e.g. "OrdersController").
	Name string

	// Namespace is the declaring namespace of the source type.
	Namespace string

	// Routes are the non-empty group-level route templates.
	Routes []string

	// Endpoints are the eligible endpoints in declaration order.
	Endpoints []*Endpoint

	// Types is the ordered union of the return types and non-file parameter
	// types of all endpoints, used to compute imports.
	Types []*TypeRef

	Doc string
}

// DisplayName returns the service name with the Controller suffix stripped.
func (s *Service) DisplayName() string {
	return strings.TrimSuffix(s.Name, ServiceSuffix)
}

// Endpoint is a single HTTP-bound operation (an action).
type Endpoint struct {
	// Name is the declared method name.
	Name string

	// Method is the upper-case HTTP verb.
	Method string

	// Returns is the clean payload type. Nil means no payload.
	Returns *TypeRef

	// Params are the parameters in declaration order.
	Params []*Parameter

	// Routes are the composed route templates: group fragments then endpoint
	// fragments, stored verbatim including optional markers.
	Routes []string

	Doc string
}

// Location is where a parameter is carried in the request.
type Location int

const (
	LocationQuery Location = iota
	LocationPath
	LocationBody
	LocationFile
)

// String returns the string representation of the location.
func (l Location) String() string {
	switch l {
	case LocationQuery:
		return "Query"
	case LocationPath:
		return "Path"
	case LocationBody:
		return "Body"
	case LocationFile:
		return "File"
	default:
		return "Unknown"
	}
}

// Parameter is an endpoint parameter.
type Parameter struct {
	Name     string
	Type     *TypeRef
	Location Location
}

// IsFile reports whether the parameter is an opaque file upload.
func (p *Parameter) IsFile() bool { return p.Location == LocationFile }

// RouteParam returns the parameter name of a raw route placeholder body,
// dropping catch-all stars, constraints, defaults and the optional marker:
// "*path", "id:int", "page=1" and "slug?" name path, id, page and slug.
func RouteParam(raw string) string {
	raw = strings.TrimLeft(raw, "*")
	if i := strings.IndexAny(raw, ":=?"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
