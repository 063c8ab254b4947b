// Package testfixtures provides introspected handles for a small shop API,
// shared by the builder, render and generator tests.
package testfixtures

import "github.com/sharpness/sharpgen/introspect"

// Namespaces used by the shop fixture.
const (
	ModelsNamespace      = "Shop.Models"
	ControllersNamespace = "Shop.Web.Controllers"
)

// Shop is a small API with orders, customers and uploads.
type Shop struct {
	U *introspect.Universe

	Status   *introspect.Type
	Customer *introspect.Type
	Order    *introspect.Type
	Page     *introspect.Type

	Orders  *introspect.Type
	Uploads *introspect.Type
	Health  *introspect.Type
	Base    *introspect.Type
}

// Task wraps t in Task<t>.
func Task(u *introspect.Universe, t *introspect.Type) *introspect.Type {
	return introspect.Construct(u.Generic("Task", 1), t)
}

// ActionResult wraps t in ActionResult<t>.
func ActionResult(u *introspect.Universe, t *introspect.Type) *introspect.Type {
	return introspect.Construct(u.Generic("ActionResult", 1), t)
}

// List wraps t in List<t>.
func List(u *introspect.Universe, t *introspect.Type) *introspect.Type {
	return introspect.Construct(u.Generic("List", 1), t)
}

// Nullable wraps t in Nullable<t>.
func Nullable(u *introspect.Universe, t *introspect.Type) *introspect.Type {
	return introspect.Construct(u.Generic("Nullable", 1), t)
}

// Controller declares a concrete service type deriving from the builtin base.
func Controller(u *introspect.Universe, name string, routes ...string) *introspect.Type {
	return &introspect.Type{
		Name:      name,
		Namespace: ControllersNamespace,
		Kind:      introspect.KindClass,
		Base:      u.Lookup("Controller"),
		Routes:    routes,
	}
}

// Model declares a class in the models namespace.
func Model(name string, props ...*introspect.Property) *introspect.Type {
	return &introspect.Type{
		Name:       name,
		Namespace:  ModelsNamespace,
		Kind:       introspect.KindClass,
		Properties: props,
	}
}

// Prop declares a property.
func Prop(name string, t *introspect.Type) *introspect.Property {
	return &introspect.Property{Name: name, Type: t}
}

// Arg declares a method parameter.
func Arg(name string, t *introspect.Type) *introspect.Param {
	return &introspect.Param{Name: name, Type: t}
}

// NewShop returns a fresh shop fixture.
func NewShop() *Shop {
	u := introspect.NewUniverse()
	s := &Shop{U: u}
	prim := u.Lookup

	s.Status = &introspect.Type{
		Name:      "Status",
		Namespace: ModelsNamespace,
		Kind:      introspect.KindEnum,
		Members:   []string{"Pending", "Paid", "Shipped"},
	}

	s.Customer = Model("Customer")
	s.Order = Model("Order",
		Prop("Id", prim("int")),
		Prop("Total", prim("decimal")),
		Prop("Status", s.Status),
		Prop("Customer", s.Customer),
		Prop("ShippedAt", Nullable(u, prim("DateTime"))),
	)
	s.Customer.Properties = []*introspect.Property{
		Prop("Name", prim("string")),
		{Name: "Email", Type: prim("string"), JSONName: "email_address"},
		Prop("Orders", List(u, s.Order)),
	}

	s.Page = Model("Page",
		Prop("Items", List(u, introspect.TypeParam("T"))),
		Prop("Count", prim("int")),
	)
	s.Page.TypeParams = []string{"T"}

	s.Base = Controller(u, "ApiControllerBase")
	s.Base.Abstract = true

	s.Orders = Controller(u, "OrdersController", "api/orders")
	s.Orders.Base = s.Base
	s.Orders.Methods = []*introspect.Method{
		{
			Name:    "GetOrder",
			Returns: Task(u, ActionResult(u, s.Order)),
			Params:  []*introspect.Param{Arg("id", prim("int"))},
			Routes:  []string{"{id}"},
		},
		{
			Name:    "ListOrdersAsync",
			Returns: Task(u, introspect.Construct(s.Page, s.Order)),
			Params: []*introspect.Param{
				Arg("page", prim("int")),
				Arg("status", Nullable(u, s.Status)),
			},
		},
		{
			Name:    "PostOrder",
			Returns: ActionResult(u, s.Order),
			Params:  []*introspect.Param{{Name: "order", Type: s.Order, FromBody: true}},
		},
		{
			Name:    "DeleteOrder",
			Returns: u.Lookup("Task"),
			Params:  []*introspect.Param{Arg("id", prim("int"))},
			Routes:  []string{"{id}"},
			Verbs:   []string{"delete"},
		},
		{
			Name:    "Describe",
			Static:  true,
			Returns: prim("string"),
		},
		{
			Name:      "Json",
			Inherited: true,
			Returns:   prim("object"),
		},
	}

	s.Uploads = Controller(u, "UploadsController", "api/uploads")
	s.Uploads.Methods = []*introspect.Method{
		{
			Name:    "Upload",
			Returns: Task(u, ActionResult(u, prim("string"))),
			Params:  []*introspect.Param{Arg("file", u.Lookup("IFormFile"))},
			Verbs:   []string{"POST"},
		},
	}

	s.Health = Controller(u, "HealthController", "health")
	s.Health.Methods = []*introspect.Method{
		{Name: "Ping", Returns: u.Lookup("IActionResult")},
	}

	return s
}

// Types returns every declared handle, services and models interleaved, as
// a loader would report them.
func (s *Shop) Types() []*introspect.Type {
	return []*introspect.Type{s.Status, s.Base, s.Orders, s.Customer, s.Health, s.Order, s.Uploads, s.Page}
}
