package sharpgen

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sharpness/sharpgen/sink"
)

const description = `
namespace: Shop.Web
types:
  - name: Order
    properties:
      - {name: Id, type: int}
      - {name: Lines, type: "List<OrderLine>"}
  - name: OrderLine
    properties:
      - {name: Sku, type: string}
  - name: OrdersController
    base: Controller
    routes: [api/orders]
    methods:
      - {name: GetOrder, returns: "Task<Order>", routes: ["{id}"], params: [{name: id, type: int}]}
      - {name: PostOrder, returns: Order, params: [{name: order, type: Order, body: true}]}
  - name: ProxyController
    base: Controller
    methods:
      - {name: Forward, returns: string}
`

func TestGenerate(t *testing.T) {
	web, mobile, docs := sink.NewMemory(), sink.NewMemory(), sink.NewMemory()
	var logs bytes.Buffer

	res, err := FromDescriptionData([]byte(description)).
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))).
		TargetSink("angular", web).Exclude("Proxy").
		TargetSink("csharp", mobile).Option("namespace", "Shop.Mobile").
		TargetSink("openapi", docs).
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(res.Outputs) != 3 {
		t.Fatalf("outputs = %d, want 3", len(res.Outputs))
	}
	if got := len(res.Assembly.Services); got != 2 {
		t.Errorf("services = %d, want 2", got)
	}

	if web.Get("services/orders.service.ts") == nil || web.Get("models/OrderLine.ts") == nil {
		t.Errorf("angular paths = %v", web.Paths())
	}
	if web.Get("services/proxy.service.ts") != nil {
		t.Error("excluded service rendered")
	}
	if mobile.Get("Services/ProxyService.cs") == nil {
		t.Error("exclusion leaked into another output")
	}
	if !strings.Contains(string(mobile.Get("ApiService.cs")), "namespace Shop.Mobile\n") {
		t.Error("csharp namespace option not applied")
	}

	var doc map[string]any
	if err := json.Unmarshal(docs.Get("openapi.json"), &doc); err != nil {
		t.Fatalf("openapi.json: %v", err)
	}

	if !strings.Contains(logs.String(), "generation complete") || !strings.Contains(logs.String(), "elapsed=") {
		t.Errorf("missing summary log line:\n%s", logs.String())
	}
}

func TestGenerate_Filesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.yaml")
	if err := os.WriteFile(path, []byte(description), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "client")

	// A stale file in an owned directory is removed.
	if err := os.MkdirAll(filepath.Join(out, "models"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "models", "Stale.ts"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := FromDescription(path).
		WithLogger(slog.New(slog.DiscardHandler)).
		Target("angular", out).
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(out, "models", "Stale.ts")); !os.IsNotExist(err) {
		t.Error("stale model survived regeneration")
	}
	data, err := os.ReadFile(filepath.Join(out, "models", "Order.ts"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "lines: OrderLine[];") {
		t.Errorf("Order.ts = %s", data)
	}
}

func TestGenerate_Errors(t *testing.T) {
	quiet := slog.New(slog.DiscardHandler)
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "no outputs",
			cfg:     Config{Input: Input{DescriptionData: []byte(description)}},
			wantErr: "no outputs",
		},
		{
			name:    "unknown target",
			cfg:     Config{Input: Input{DescriptionData: []byte(description)}, Outputs: []Output{{Target: "swift", Sink: sink.NewMemory()}}},
			wantErr: `unknown target: "swift"`,
		},
		{
			name:    "no input",
			cfg:     Config{Outputs: []Output{{Target: "angular", Sink: sink.NewMemory()}}},
			wantErr: "no input",
		},
		{
			name: "ambiguous input",
			cfg: Config{
				Input:   Input{Description: "a.yaml", Packages: []string{"./api"}},
				Outputs: []Output{{Target: "angular", Sink: sink.NewMemory()}},
			},
			wantErr: "ambiguous input",
		},
		{
			name:    "no directory",
			cfg:     Config{Input: Input{DescriptionData: []byte(description)}, Outputs: []Output{{Target: "angular"}}},
			wantErr: "no directory",
		},
		{
			name: "duplicate endpoint",
			cfg: Config{
				Input: Input{DescriptionData: []byte(`
types:
  - name: AController
    base: Controller
    methods:
      - {name: Get, returns: int}
      - {name: Get, returns: string}
`)},
				Outputs: []Output{{Target: "angular", Sink: sink.NewMemory()}},
			},
			wantErr: "duplicate endpoint name in service A: Get",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Logger = quiet
			_, err := Generate(context.Background(), &tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Generate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	mem := sink.NewMemory()
	src := `
types:
  - name: AController
    base: Controller
    methods:
      - {name: Get, returns: "Task<Missing>"}
`
	_, err := FromDescriptionData([]byte(src)).
		WithLogger(slog.New(slog.DiscardHandler)).
		TargetSink("angular", mem).
		Generate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(mem.Paths()) != 0 || len(mem.Recreated()) != 0 {
		t.Error("sink touched after a failed build")
	}
}

func TestGenerator_Config(t *testing.T) {
	cfg := FromPackages("./api").Dir("/src").BaseType("ApiController").
		Target("angular", "out").Option("module", "Shop").Exclude("A", "B").
		Config()

	if cfg.Input.Dir != "/src" || cfg.Input.BaseType != "ApiController" {
		t.Errorf("Input = %+v", cfg.Input)
	}
	out := cfg.Outputs[0]
	if out.Options["module"] != "Shop" || strings.Join(out.Exclude, ",") != "A,B" {
		t.Errorf("Output = %+v", out)
	}
}
