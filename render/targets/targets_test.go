package targets

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		opts    map[string]string
		wantErr string
	}{
		{name: "angular defaults", target: "angular"},
		{name: "angular module", target: "angular", opts: map[string]string{"module": "ShopModule"}},
		{name: "angular bad module", target: "angular", opts: map[string]string{"module": "shop-module"}, wantErr: "angular options"},
		{name: "csharp", target: "csharp", opts: map[string]string{"namespace": "Shop.Mobile.Api"}},
		{name: "csharp missing namespace", target: "csharp", wantErr: "required"},
		{name: "csharp bad namespace", target: "csharp", opts: map[string]string{"namespace": "Shop..Api"}, wantErr: "namespace"},
		{name: "openapi", target: "openapi", opts: map[string]string{"title": "Shop", "file": "shop.json"}},
		{name: "openapi bad file", target: "openapi", opts: map[string]string{"file": "shop.yaml"}, wantErr: "endswith"},
		{name: "unknown option", target: "angular", opts: map[string]string{"theme": "dark"}, wantErr: "theme"},
		{name: "unknown target", target: "swift", wantErr: `unknown target: "swift"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Get(tt.target, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Get() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Name() != tt.target {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.target)
			}
		})
	}
}

func TestNames(t *testing.T) {
	if got := strings.Join(Names(), ","); got != "angular,csharp,openapi" {
		t.Errorf("Names() = %s", got)
	}
}
