package openapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/sharpness/sharpgen/builder"
	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/internal/testfixtures"
	"github.com/sharpness/sharpgen/render"
	"github.com/sharpness/sharpgen/sink"
)

func shopDocument(t *testing.T) *openapi3.T {
	t.Helper()
	shop := testfixtures.NewShop()
	asm, err := builder.Build(shop.Types(), builder.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	doc, err := New(Options{Title: "Shop"}).Document(asm.Services)
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	return doc
}

func TestDocument_Paths(t *testing.T) {
	doc := shopDocument(t)

	get := doc.Paths.Value("/api/orders/{id}")
	if get == nil || get.Get == nil {
		t.Fatal("missing GET /api/orders/{id}")
	}
	if get.Get.OperationID != "Orders_GetOrder" {
		t.Errorf("OperationID = %q", get.Get.OperationID)
	}
	if p := get.Get.Parameters.GetByInAndName("path", "id"); p == nil || !p.Required {
		t.Error("id is not a required path parameter")
	}

	list := doc.Paths.Value("/api/orders")
	if list == nil || list.Get == nil || list.Post == nil {
		t.Fatal("missing GET and POST /api/orders")
	}
	if list.Get.OperationID != "Orders_ListOrders" {
		t.Errorf("OperationID = %q", list.Get.OperationID)
	}
	if list.Get.Parameters.GetByInAndName("query", "status") == nil {
		t.Error("status is not a query parameter")
	}
	if list.Post.RequestBody == nil || list.Post.RequestBody.Value.Content.Get("application/json") == nil {
		t.Error("POST body is not JSON")
	}

	upload := doc.Paths.Value("/api/uploads")
	if upload == nil || upload.Post == nil {
		t.Fatal("missing POST /api/uploads")
	}
	if upload.Post.RequestBody.Value.Content.Get("multipart/form-data") == nil {
		t.Error("upload body is not multipart")
	}

	if doc.Paths.Value("/health") != nil {
		t.Error("health has no endpoints but produced a path")
	}
}

func TestDocument_Schemas(t *testing.T) {
	doc := shopDocument(t)
	schemas := doc.Components.Schemas

	for _, name := range []string{"Order", "Customer", "Status", "PageOfOrder"} {
		if schemas[name] == nil {
			t.Errorf("missing component %s", name)
		}
	}
	if schemas["Page"] != nil {
		t.Error("unbound generic definition emitted as a component")
	}

	order := schemas["Order"].Value
	if order.Properties["customer"].Ref != "#/components/schemas/Customer" {
		t.Errorf("customer ref = %q", order.Properties["customer"].Ref)
	}
	if !order.Properties["shippedAt"].Value.Nullable {
		t.Error("shippedAt should be nullable")
	}

	page := schemas["PageOfOrder"].Value
	if page.Properties["items"].Value.Items.Ref != "#/components/schemas/Order" {
		t.Errorf("items ref = %q", page.Properties["items"].Value.Items.Ref)
	}

	if got := len(schemas["Status"].Value.Enum); got != 3 {
		t.Errorf("Status enum has %d members, want 3", got)
	}
	if _, ok := schemas["Customer"].Value.Properties["email_address"]; !ok {
		t.Error("json name override not applied")
	}
}

func TestDocument_Validates(t *testing.T) {
	doc := shopDocument(t)
	if err := doc.Validate(context.Background()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDocument_RefsResolve(t *testing.T) {
	doc := shopDocument(t)

	customer := doc.Components.Schemas["Order"].Value.Properties["customer"]
	if customer.Value == nil || customer.Value != doc.Components.Schemas["Customer"].Value {
		t.Error("customer ref does not carry the Customer component schema")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("LoadFromData() error = %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Errorf("reloaded Validate() error = %v", err)
	}
}

func TestFinish_WritesSingleFile(t *testing.T) {
	shop := testfixtures.NewShop()
	asm, err := builder.Build(shop.Types(), builder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	mem := sink.NewMemory()
	r := &render.Renderer{Target: New(Options{}), Sink: mem}
	if _, err := r.Render(context.Background(), asm); err != nil {
		t.Fatal(err)
	}

	if paths := mem.Paths(); len(paths) != 1 || paths[0] != "openapi.json" {
		t.Fatalf("Paths() = %v, want [openapi.json]", paths)
	}
	var doc map[string]any
	if err := json.Unmarshal(mem.Get("openapi.json"), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
}

func TestDocument_DuplicateOperation(t *testing.T) {
	ep := func(name string) *contract.Endpoint {
		return &contract.Endpoint{Name: name, Method: "GET", Routes: []string{"x"}, Returns: contract.Prim(contract.PrimitiveInt32)}
	}
	svc := &contract.Service{Name: "XController", Endpoints: []*contract.Endpoint{ep("A"), ep("B")}}
	if _, err := New(Options{}).Document([]*contract.Service{svc}); err == nil {
		t.Error("expected duplicate operation error")
	}
}
