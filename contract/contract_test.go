package contract

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"OrdersController", "Orders"},
		{"Orders", "Orders"},
		{"ControllerOfThingsController", "ControllerOfThings"},
		{"Controller", ""},
	}
	for _, tt := range tests {
		if got := (&Service{Name: tt.name}).DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRouteParam(t *testing.T) {
	for raw, want := range map[string]string{
		"id":             "id",
		"id?":            "id",
		"id:int":         "id",
		"id:int:min(1)?": "id",
		"page=1":         "page",
		"*path":          "path",
		"**slug":         "slug",
	} {
		if got := RouteParam(raw); got != want {
			t.Errorf("RouteParam(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestTypeRef_Key(t *testing.T) {
	order := &Model{ID: Identity{Name: "Order", Namespace: "Shop"}}
	page := &Model{ID: Identity{Name: "Page", Namespace: "Shop"}, TypeParams: []string{"T"}}
	status := &Model{ID: Identity{Name: "Status", Namespace: "Shop"}, Members: []string{}}

	tests := []struct {
		ref  *TypeRef
		want string
	}{
		{Prim(PrimitiveInt32), "int"},
		{NullableOf(Prim(PrimitiveInt32)), "int?"},
		{ArrayOf(ModelRef(order)), "Shop.Order[]"},
		{GenericOf(page, ArrayOf(ModelRef(order))), "Shop.Page<Shop.Order[]>"},
		{ModelRef(status), "Shop.Status"},
		{TypeParamRef("T"), "$T"},
		{Unsupported("Task<int>", "wrapper"), "!Task<int>"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := tt.ref.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}

	if ModelRef(status).Kind != KindEnum {
		t.Error("ModelRef of an enum declaration should be KindEnum")
	}
}

func TestAssembly_Validate(t *testing.T) {
	order := &Model{ID: Identity{Name: "Order"}}
	asm := &Assembly{Services: []*Service{
		{
			Name: "OrdersController",
			Endpoints: []*Endpoint{
				{Name: "Get", Returns: ModelRef(order)},
				{Name: "Get", Returns: ModelRef(order)},
				{Name: "Job", Returns: Unsupported("Task<int>", "wrapper")},
				{Name: "Open", Returns: ArrayOf(TypeParamRef("T"))},
				{Name: "Upload", Returns: Prim(PrimitiveString), Params: []*Parameter{{Name: "file", Location: LocationFile}}},
				{Name: "Find", Returns: Prim(PrimitiveString), Params: []*Parameter{{Name: "q", Location: LocationQuery}}},
			},
		},
		{Name: "Orders"},
	}}

	var codes []string
	for _, err := range asm.Validate() {
		codes = append(codes, err.(*ValidationError).Code)
	}
	want := "duplicate_endpoint,unsupported_type,open_type_parameter,missing_type,duplicate_service"
	if got := strings.Join(codes, ","); got != want {
		t.Errorf("Validate() codes = %s, want %s", got, want)
	}
}

func TestMarshalJSON(t *testing.T) {
	order := &Model{ID: Identity{Name: "Order", Namespace: "Shop"}}
	order.Fields = []Field{{Name: "Parent", Type: ModelRef(order)}}

	svc := &Service{
		Name: "OrdersController",
		Endpoints: []*Endpoint{{
			Name:    "Get",
			Method:  "GET",
			Returns: NullableOf(ModelRef(order)),
			Params:  []*Parameter{{Name: "id", Type: Prim(PrimitiveInt32), Location: LocationPath}},
		}},
	}

	data, err := json.Marshal(svc)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"displayName":"Orders"`,
		`"Location":"Path"`,
		`{"kind":"Nullable","elem":{"kind":"Model","name":"Shop.Order"}}`,
		`{"kind":"Primitive","primitive":"int"}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s\n%s", want, s)
		}
	}
}
