// Package render drives client-binding generation. A Renderer runs one fixed
// traversal over a contract and delegates all emission to a Target.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/sink"
	"github.com/sharpness/sharpgen/walker"
)

// File is one rendered output file.
type File struct {
	// Path is slash-separated and relative to the output root.
	Path    string
	Content []byte
}

// Target is the emission strategy of one client language. Implementations
// are pure: they map contract values to file contents and hold no state
// across calls.
type Target interface {
	// Name identifies the target (e.g. "angular").
	Name() string

	// Dirs lists the output directories the target owns. They are deleted
	// and re-created at the start of every run.
	Dirs() []string

	// ModelFile renders one model or enum declaration. imports are the
	// declarations its fields name, in field order.
	ModelFile(m *contract.Model, imports []contract.Identity) (File, error)

	// ServiceFile renders the binding for one service. imports are the
	// declarations its endpoints name, in traversal order.
	ServiceFile(svc *contract.Service, imports []contract.Identity) (File, error)

	// Finish renders aggregator and runtime-support files once every
	// service has been rendered.
	Finish(st *State) ([]File, error)
}

// State is the bookkeeping of one Render call.
type State struct {
	visited walker.Visited
	names   map[string]contract.Identity

	// Models are the rendered declarations in render order.
	Models []*contract.Model

	// Services are the rendered services in assembly order.
	Services []*contract.Service
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		visited: make(walker.Visited),
		names:   make(map[string]contract.Identity),
	}
}

// Visited reports whether the declaration has been rendered.
func (st *State) Visited(id contract.Identity) bool {
	return st.visited[id]
}

// addModel records m. Declarations are written to files named after
// their short name, so two identities sharing a name cannot coexist.
func (st *State) addModel(m *contract.Model) error {
	if prev, ok := st.names[m.ID.Name]; ok && prev != m.ID {
		return fmt.Errorf("model name %s is declared by both %s and %s", m.ID.Name, prev, m.ID)
	}
	st.names[m.ID.Name] = m.ID
	st.Models = append(st.Models, m)
	return nil
}

// Renderer renders a contract through a Target into a Sink.
type Renderer struct {
	Target Target
	Sink   sink.Sink

	// Exclude lists service display names that are never rendered.
	Exclude []string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result summarizes a completed run.
type Result struct {
	Target   string
	Files    []string
	Services int
	Models   int
	Elapsed  time.Duration
}

// ShouldRender reports whether svc has at least one endpoint and is not excluded.
func (r *Renderer) ShouldRender(svc *contract.Service) bool {
	if len(svc.Endpoints) == 0 {
		return false
	}
	name := svc.DisplayName()
	for _, x := range r.Exclude {
		if x == name {
			return false
		}
	}
	return true
}

// Render renders asm. Every file is produced before anything is written,
// so an unsupported type aborts the run with the output tree untouched.
// A write failure after that point leaves the owned directories partially
// filled; the next successful run replaces them.
func (r *Renderer) Render(ctx context.Context, asm *contract.Assembly) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("target", r.Target.Name()))
	start := time.Now()

	st, files, err := r.plan(asm, logger)
	if err != nil {
		return nil, err
	}

	for _, dir := range r.Target.Dirs() {
		if err := r.Sink.Recreate(ctx, dir); err != nil {
			return nil, fmt.Errorf("%s: %w", r.Target.Name(), err)
		}
	}

	res := &Result{
		Target:   r.Target.Name(),
		Services: len(st.Services),
		Models:   len(st.Models),
	}
	for _, f := range files {
		if err := r.Sink.WriteFile(ctx, f.Path, f.Content); err != nil {
			return nil, fmt.Errorf("%s: %w", r.Target.Name(), err)
		}
		logger.Debug("wrote file", slog.String("path", f.Path), slog.Int("bytes", len(f.Content)))
		res.Files = append(res.Files, f.Path)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func (r *Renderer) plan(asm *contract.Assembly, logger *slog.Logger) (*State, []File, error) {
	st := NewState()
	var files []File

	for _, svc := range asm.Services {
		if !r.ShouldRender(svc) {
			logger.Debug("skipping service", slog.String("service", svc.DisplayName()), slog.Int("endpoints", len(svc.Endpoints)))
			continue
		}

		var imports []contract.Identity
		seen := make(map[contract.Identity]bool)
		for _, ref := range svc.Types {
			res, err := walker.Walk(ref, st.visited)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: service %s: %w", r.Target.Name(), svc.DisplayName(), err)
			}
			for _, id := range res.Imports {
				if !seen[id] {
					seen[id] = true
					imports = append(imports, id)
				}
			}
			for _, m := range res.Discovered {
				if err := st.addModel(m); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", r.Target.Name(), err)
				}
				f, err := r.Target.ModelFile(m, walker.Fields(m))
				if err != nil {
					return nil, nil, fmt.Errorf("%s: model %s: %w", r.Target.Name(), m.ID, err)
				}
				files = appendFile(files, f)
			}
		}

		f, err := r.Target.ServiceFile(svc, imports)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: service %s: %w", r.Target.Name(), svc.DisplayName(), err)
		}
		files = appendFile(files, f)
		st.Services = append(st.Services, svc)
	}

	extra, err := r.Target.Finish(st)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", r.Target.Name(), err)
	}
	for _, f := range extra {
		files = appendFile(files, f)
	}
	return st, files, nil
}

// appendFile drops zero Files, which targets that emit a single aggregate
// document return from ModelFile and ServiceFile.
func appendFile(files []File, f File) []File {
	if f.Path == "" {
		return files
	}
	return append(files, f)
}
