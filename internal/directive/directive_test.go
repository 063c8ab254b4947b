package directive

import (
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"
)

func TestParseFile(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    map[string][]string // key -> "kind arg" entries
		wantErr string
	}{
		{
			name: "type routes",
			src: `package api

// OrdersController serves orders.
//
//sharp:route api/orders
type OrdersController struct{ Controller }
`,
			want: map[string][]string{"OrdersController": {"route api/orders"}},
		},
		{
			name: "method directives",
			src: `package api

type OrdersController struct{}

//sharp:route {id}
//sharp:method PUT
//sharp:body order
func (c *OrdersController) Replace(id int, order Order) (Order, error) { return order, nil }

//sharp:nonaction
func (OrdersController) helper() {}
`,
			want: map[string][]string{
				"OrdersController.Replace": {"route {id}", "method PUT", "body order"},
				"OrdersController.helper":  {"nonaction "},
			},
		},
		{
			name: "generic receiver",
			src: `package api

type Repo[T any] struct{}

//sharp:route items
func (r *Repo[T]) List() []T { return nil }
`,
			want: map[string][]string{"Repo.List": {"route items"}},
		},
		{
			name: "grouped type spec",
			src: `package api

type (
	//sharp:abstract
	BaseController struct{}

	Plain struct{}
)
`,
			want: map[string][]string{"BaseController": {"abstract "}},
		},
		{
			name: "plain comments ignored",
			src: `package api

// sharp:route looks like a directive but has a space.
type A struct{}
`,
			want: map[string][]string{},
		},
		{
			name: "unknown directive",
			src: `package api

//sharp:verb GET
func (A) Get() {}
`,
			wantErr: "unknown directive //sharp:verb",
		},
		{
			name: "missing argument",
			src: `package api

//sharp:route
type A struct{}
`,
			wantErr: "//sharp:route takes exactly one argument",
		},
		{
			name: "unexpected argument",
			src: `package api

//sharp:nonaction please
func (A) Get() {}
`,
			wantErr: "//sharp:nonaction takes no arguments",
		},
		{
			name: "method directive on type",
			src: `package api

//sharp:method POST
type A struct{}
`,
			wantErr: "//sharp:method is not allowed on a type",
		},
		{
			name: "abstract on method",
			src: `package api

//sharp:abstract
func (A) Get() {}
`,
			wantErr: "//sharp:abstract is not allowed on a method",
		},
		{
			name: "directive not on declaration",
			src: `package api

//sharp:route api
var x = 1
`,
			wantErr: "must be followed by a type or method declaration",
		},
		{
			name: "directive on plain function",
			src: `package api

//sharp:route api
func setup() {}
`,
			wantErr: "must be followed by a type or method declaration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fset := token.NewFileSet()
			f, err := parser.ParseFile(fset, "api.go", tt.src, parser.ParseComments)
			if err != nil {
				t.Fatal(err)
			}

			result, err := ParseFile(fset, f)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := make(map[string][]string)
			for key, set := range result {
				for _, d := range set {
					got[key] = append(got[key], string(d.Kind)+" "+d.Arg)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	s := Set{
		{Kind: KindRoute, Arg: "a"},
		{Kind: KindNonAction},
		{Kind: KindRoute, Arg: "b"},
	}
	if !s.Has(KindNonAction) || s.Has(KindAbstract) {
		t.Error("Has() mismatch")
	}
	if got := strings.Join(s.Args(KindRoute), ","); got != "a,b" {
		t.Errorf("Args(route) = %s", got)
	}
	if got := Key("OrdersController", "Get"); got != "OrdersController.Get" {
		t.Errorf("Key() = %s", got)
	}
}

func TestDirectivePosition(t *testing.T) {
	src := "package api\n\n//sharp:abstract\ntype A struct{}\n"
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "api.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	result, err := ParseFile(fset, f)
	if err != nil {
		t.Fatal(err)
	}
	if pos := result["A"][0].Pos; pos.Filename != "api.go" || pos.Line != 3 {
		t.Errorf("Pos = %v, want api.go:3", pos)
	}
}
