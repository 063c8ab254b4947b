package angular

import (
	"context"
	"strings"
	"testing"

	"github.com/sharpness/sharpgen/builder"
	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/internal/testfixtures"
	"github.com/sharpness/sharpgen/introspect"
	"github.com/sharpness/sharpgen/render"
	"github.com/sharpness/sharpgen/sink"
)

func renderTypes(t *testing.T, exclude []string, types ...*introspect.Type) *sink.Memory {
	t.Helper()
	asm, err := builder.Build(types, builder.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	mem := sink.NewMemory()
	r := &render.Renderer{Target: New(Options{}), Sink: mem, Exclude: exclude}
	if _, err := r.Render(context.Background(), asm); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return mem
}

func assertContains(t *testing.T, content string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q\n--- got ---\n%s", want, content)
		}
	}
}

func TestRender_GetOrderScenario(t *testing.T) {
	u := introspect.NewUniverse()
	order := testfixtures.Model("Order",
		testfixtures.Prop("Total", u.Lookup("decimal")),
		testfixtures.Prop("Id", u.Lookup("int")),
	)
	orders := testfixtures.Controller(u, "OrdersController", "orders")
	orders.Methods = []*introspect.Method{{
		Name:    "GetOrder",
		Returns: order,
		Routes:  []string{"{id}"},
		Params:  []*introspect.Param{testfixtures.Arg("id", u.Lookup("int"))},
	}}

	mem := renderTypes(t, nil, orders)

	if got := strings.Join(mem.Paths(), " "); got != "api.module.ts api.service.ts index.ts models/Order.ts services/orders.service.ts" {
		t.Errorf("Paths() = %s", got)
	}

	svc := string(mem.Get("services/orders.service.ts"))
	assertContains(t, svc,
		"import { Order } from '../models/Order';",
		"export class OrdersService {",
		"constructor(private builder: ApiService) { }",
		"public getOrder(id: number): Observable<Order> {",
		"const url = `/orders/${encodeURIComponent(String(id))}`;",
		"return this.builder.request<Order>(url, 'GET')",
		"            .build();",
	)
	if strings.Contains(svc, "addQueryParam") {
		t.Error("path parameter bound as query parameter")
	}

	model := string(mem.Get("models/Order.ts"))
	want := "\nexport interface Order {\n\n    id: number;\n    total: number;\n\n}\n"
	if model != want {
		t.Errorf("models/Order.ts = %q, want %q", model, want)
	}
}

func TestRender_DerivedModelAndRouteTemplates(t *testing.T) {
	u := introspect.NewUniverse()
	entity := testfixtures.Model("Entity", testfixtures.Prop("Id", u.Lookup("int")))
	order := testfixtures.Model("Order", testfixtures.Prop("Total", u.Lookup("decimal")))
	order.Base = entity
	orders := testfixtures.Controller(u, "OrdersController", "/orders/")
	orders.Methods = []*introspect.Method{{
		Name:    "GetOrder",
		Returns: order,
		Routes:  []string{"/{id:int}"},
		Params:  []*introspect.Param{testfixtures.Arg("id", u.Lookup("int"))},
	}}

	mem := renderTypes(t, nil, orders)

	svc := string(mem.Get("services/orders.service.ts"))
	assertContains(t, svc, "const url = `/orders/${encodeURIComponent(String(id))}`;")
	if strings.Contains(svc, "addQueryParam") {
		t.Error("constrained path parameter bound as query parameter")
	}

	model := string(mem.Get("models/Order.ts"))
	assertContains(t, model, "    id: number;", "    total: number;")
}

func TestRender_UploadScenario(t *testing.T) {
	shop := testfixtures.NewShop()
	mem := renderTypes(t, []string{"Orders"}, shop.Types()...)

	svc := string(mem.Get("services/uploads.service.ts"))
	assertContains(t, svc,
		"public upload(file: Blob): Observable<string> {",
		"const url = `/api/uploads`;",
		"request<string>(url, 'POST')",
		".addFileParam('file', file)",
	)
	if strings.Contains(svc, "../models/") {
		t.Errorf("file parameter produced a model import:\n%s", svc)
	}
	for _, p := range mem.Paths() {
		if strings.HasPrefix(p, "models/") {
			t.Errorf("unexpected model file %s", p)
		}
	}
}

func TestRender_Shop(t *testing.T) {
	shop := testfixtures.NewShop()
	mem := renderTypes(t, nil, shop.Types()...)

	svc := string(mem.Get("services/orders.service.ts"))
	assertContains(t, svc,
		"import { Order } from '../models/Order';\nimport { Page } from '../models/Page';\nimport { Status } from '../models/Status';\n",
		"public listOrders(page: number, status: Status|null): Observable<Page<Order>> {",
		".addQueryParam('page', page)\n            .addQueryParam('status', status)",
		"public postOrder(order: Order): Observable<Order> {",
		"request<Order>(url, 'POST')\n            .addBodyParam(order)",
	)
	if strings.Contains(svc, "deleteOrder") || strings.Contains(svc, "describe") {
		t.Error("ineligible endpoint rendered")
	}

	if mem.Get("services/health.service.ts") != nil {
		t.Error("service without endpoints rendered")
	}

	assertContains(t, string(mem.Get("models/Status.ts")),
		"export enum Status {\n    Pending = 'Pending',\n    Paid = 'Paid',\n    Shipped = 'Shipped',\n}\n")

	assertContains(t, string(mem.Get("models/Order.ts")),
		"import { Customer } from './Customer';\nimport { Status } from './Status';\n",
		"    customer: Customer;\n    id: number;\n    shippedAt: Date|null;\n    status: Status;\n    total: number;\n",
	)

	customer := string(mem.Get("models/Customer.ts"))
	assertContains(t, customer,
		"import { Order } from './Order';",
		"    email_address: string;\n    name: string;\n    orders: Order[];\n",
	)
	if strings.Contains(customer, "from './Customer'") {
		t.Error("model imports itself")
	}

	assertContains(t, string(mem.Get("models/Page.ts")),
		"export interface Page<T> {",
		"    count: number;\n    items: T[];\n",
	)

	module := string(mem.Get("api.module.ts"))
	assertContains(t, module,
		"import { OrdersService } from './services/orders.service';\nimport { UploadsService } from './services/uploads.service';\n",
		"        OrdersService,\n        UploadsService,\n        ApiService\n",
		"export class ApiModule {",
	)
	if strings.Contains(module, "Health") {
		t.Error("module lists a service that was not rendered")
	}

	index := string(mem.Get("index.ts"))
	assertContains(t, index,
		"export { ApiModule } from './api.module';",
		"export { OrdersService } from './services/orders.service';",
		"export { Order } from './models/Order';",
		"export { Page } from './models/Page';",
	)
	if strings.Index(index, "models/Order") > strings.Index(index, "models/Page") {
		t.Error("index models not in render order")
	}

	runtime := string(mem.Get("api.service.ts"))
	assertContains(t, runtime, "export class ApiService", "'ApiModule.baseUrl'")
	if strings.Contains(runtime, moduleToken) {
		t.Error("module token not substituted")
	}
}

func TestRender_Dedup(t *testing.T) {
	u := introspect.NewUniverse()
	widget := testfixtures.Model("Widget", testfixtures.Prop("Name", u.Lookup("string")))

	var types []*introspect.Type
	for _, name := range []string{"AController", "BController"} {
		svc := testfixtures.Controller(u, name)
		for _, m := range []string{"One", "Two", "Three"} {
			svc.Methods = append(svc.Methods, &introspect.Method{Name: m, Returns: testfixtures.List(u, widget)})
		}
		types = append(types, svc)
	}

	mem := renderTypes(t, nil, types...)
	index := string(mem.Get("index.ts"))
	if n := strings.Count(index, "export { Widget }"); n != 1 {
		t.Errorf("Widget exported %d times, want 1", n)
	}
	assertContains(t, string(mem.Get("services/b.service.ts")), "import { Widget } from '../models/Widget';")
}

func TestTypeName(t *testing.T) {
	status := &contract.Model{ID: contract.Identity{Name: "Status"}, Members: []string{"A"}}
	page := &contract.Model{ID: contract.Identity{Name: "Page"}, TypeParams: []string{"T"}}

	tests := []struct {
		ref  *contract.TypeRef
		want string
	}{
		{nil, "void"},
		{contract.Prim(contract.PrimitiveInt64), "number"},
		{contract.Prim(contract.PrimitiveDecimal), "number"},
		{contract.Prim(contract.PrimitiveBool), "boolean"},
		{contract.Prim(contract.PrimitiveDateTime), "Date"},
		{contract.Prim(contract.PrimitiveDateTimeOffset), "Date"},
		{contract.Prim(contract.PrimitiveObject), "object"},
		{contract.Prim(contract.PrimitiveGuid), "string"},
		{contract.Prim(contract.PrimitiveChar), "string"},
		{contract.NullableOf(contract.Prim(contract.PrimitiveInt32)), "number|null"},
		{contract.ArrayOf(contract.NullableOf(contract.Prim(contract.PrimitiveInt32))), "(number|null)[]"},
		{contract.ArrayOf(contract.ArrayOf(contract.Prim(contract.PrimitiveString))), "string[][]"},
		{contract.GenericOf(page, contract.ArrayOf(contract.ModelRef(status))), "Page<Status[]>"},
		{contract.TypeParamRef("T"), "T"},
	}
	for _, tt := range tests {
		got, err := TypeName(tt.ref)
		if err != nil {
			t.Errorf("TypeName(%s) error = %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("TypeName(%s) = %q, want %q", tt.ref, got, tt.want)
		}
	}

	if _, err := TypeName(contract.Unsupported("Task<int>", "wrapper")); err == nil {
		t.Error("TypeName(unsupported) should fail")
	}
}

func TestMethodName(t *testing.T) {
	tests := map[string]string{
		"GetOrderAsync": "getOrder",
		"GetOrder":      "getOrder",
		"Delete":        "delete_",
		"URL":           "uRL",
	}
	for in, want := range tests {
		if got := MethodName(in); got != want {
			t.Errorf("MethodName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPropertyKey(t *testing.T) {
	tests := map[string]string{
		"id":            "id",
		"email_address": "email_address",
		"default":       "default",
		"content-type":  `"content-type"`,
		"1st":           `"1st"`,
	}
	for in, want := range tests {
		if got := propertyKey(in); got != want {
			t.Errorf("propertyKey(%q) = %q, want %q", in, got, want)
		}
	}
}
