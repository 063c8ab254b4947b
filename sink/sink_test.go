package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "simple file", path: "index.ts"},
		{name: "nested file", path: "models/Order.ts"},
		{name: "dotted name", path: "services/orders.service.ts"},
		{name: "empty", path: "", wantErr: "empty"},
		{name: "leading slash", path: "/etc/passwd", wantErr: "absolute"},
		{name: "drive letter", path: "C:/out/x.cs", wantErr: "absolute"},
		{name: "traversal", path: "models/../../x", wantErr: "traversal"},
		{name: "parent only", path: "..", wantErr: "traversal"},
		{name: "dot prefix", path: "./models/Order.ts", wantErr: "not clean"},
		{name: "double slash", path: "models//Order.ts", wantErr: "not clean"},
		{name: "trailing slash", path: "models/", wantErr: "not clean"},
		{name: "backslash", path: `models\Order.ts`, wantErr: "backslash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidatePath(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidatePath(%q) = %v, want error containing %q", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("write and get copy", func(t *testing.T) {
		s := NewMemory()
		content := []byte("export enum Status {}")
		if err := s.WriteFile(ctx, "models/Status.ts", content); err != nil {
			t.Fatal(err)
		}
		content[0] = 'X'
		if got := string(s.Get("models/Status.ts")); got != "export enum Status {}" {
			t.Errorf("Get() = %q", got)
		}
		if s.Get("missing.ts") != nil {
			t.Error("Get() of missing file should be nil")
		}
	})

	t.Run("recreate drops files under dir only", func(t *testing.T) {
		s := NewMemory()
		for _, p := range []string{"models/A.ts", "models/B.ts", "modelsx/C.ts", "index.ts"} {
			if err := s.WriteFile(ctx, p, []byte(p)); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Recreate(ctx, "models"); err != nil {
			t.Fatal(err)
		}
		got := strings.Join(s.Paths(), ",")
		if got != "index.ts,modelsx/C.ts" {
			t.Errorf("Paths() = %s", got)
		}
		if dirs := s.Recreated(); len(dirs) != 1 || dirs[0] != "models" {
			t.Errorf("Recreated() = %v", dirs)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := NewMemory()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.WriteFile(cctx, "a.ts", nil); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("invalid path", func(t *testing.T) {
		s := NewMemory()
		if err := s.WriteFile(ctx, "../a.ts", nil); err == nil {
			t.Error("expected error for traversal")
		}
	})
}

func TestFilesystem(t *testing.T) {
	ctx := context.Background()

	t.Run("write creates parents", func(t *testing.T) {
		root := t.TempDir()
		s := NewFilesystem(root)
		if err := s.WriteFile(ctx, "Services/OrdersService.cs", []byte("class")); err != nil {
			t.Fatal(err)
		}
		got, err := os.ReadFile(filepath.Join(root, "Services", "OrdersService.cs"))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "class" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		root := t.TempDir()
		s := NewFilesystem(root)
		for _, c := range []string{"one", "two"} {
			if err := s.WriteFile(ctx, "index.ts", []byte(c)); err != nil {
				t.Fatal(err)
			}
		}
		got, _ := os.ReadFile(filepath.Join(root, "index.ts"))
		if string(got) != "two" {
			t.Errorf("content = %q, want two", got)
		}
	})

	t.Run("recreate removes stale files", func(t *testing.T) {
		root := t.TempDir()
		s := NewFilesystem(root)
		if err := s.WriteFile(ctx, "models/Stale.ts", []byte("old")); err != nil {
			t.Fatal(err)
		}
		if err := s.Recreate(ctx, "models"); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(root, "models", "Stale.ts")); !os.IsNotExist(err) {
			t.Errorf("stale file survived: %v", err)
		}
		info, err := os.Stat(filepath.Join(root, "models"))
		if err != nil || !info.IsDir() {
			t.Fatalf("models dir missing after recreate: %v", err)
		}
	})

	t.Run("recreate missing dir", func(t *testing.T) {
		s := NewFilesystem(t.TempDir())
		if err := s.Recreate(ctx, "services"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("no temp files left", func(t *testing.T) {
		root := t.TempDir()
		s := NewFilesystem(root)
		if err := s.WriteFile(ctx, "a.ts", []byte("a")); err != nil {
			t.Fatal(err)
		}
		matches, _ := filepath.Glob(filepath.Join(root, ".sharpgen-*.tmp"))
		if len(matches) != 0 {
			t.Errorf("temp files left: %v", matches)
		}
	})

	t.Run("file mode", func(t *testing.T) {
		root := t.TempDir()
		s := &Filesystem{Root: root, Mode: 0o600}
		if err := s.WriteFile(ctx, "a.ts", []byte("a")); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(filepath.Join(root, "a.ts"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})
}
