package contract

import "encoding/json"

// JSON serialization support for contract types.
// Type references include a "kind" field for type discrimination. Model
// references serialize as their identity only, so shared and recursive
// models never expand inline.

// MarshalJSON implements json.Marshaler for TypeRef.
func (r *TypeRef) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind      string     `json:"kind"`
		Primitive string     `json:"primitive,omitempty"`
		Elem      *TypeRef   `json:"elem,omitempty"`
		Name      string     `json:"name,omitempty"`
		Args      []*TypeRef `json:"args,omitempty"`
		Reason    string     `json:"reason,omitempty"`
	}{
		Kind: r.Kind.String(),
		Elem: r.Elem,
		Args: r.Args,
	}
	switch r.Kind {
	case KindPrimitive:
		out.Primitive = r.Primitive.String()
	case KindModel, KindEnum, KindGeneric:
		out.Name = r.Model.ID.String()
	case KindTypeParam:
		out.Name = r.Param
	case KindUnsupported:
		out.Name = r.Source
		out.Reason = r.Reason
	}
	return json.Marshal(&out)
}

// MarshalJSON implements json.Marshaler for Location.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// MarshalJSON implements json.Marshaler for Service, adding the display name.
func (s *Service) MarshalJSON() ([]byte, error) {
	type Alias Service
	return json.Marshal(&struct {
		DisplayName string `json:"displayName"`
		*Alias
	}{
		DisplayName: s.DisplayName(),
		Alias:       (*Alias)(s),
	})
}
