package sharpgen

import (
	"context"
	"log/slog"

	"github.com/sharpness/sharpgen/sink"
)

// Generator provides a fluent API for code generation.
// Create with FromDescription() or FromPackages() and configure with method chaining.
//
// Example:
//
//	sharpgen.FromDescription("bin/Debug/contract.yaml").
//	    Target("angular", "web/src/app/api").
//	    Exclude("Proxy").
//	    Generate(ctx)
type Generator struct {
	cfg Config
}

// FromDescription creates a Generator reading a contract description file.
func FromDescription(path string) *Generator {
	return &Generator{cfg: Config{Input: Input{Description: path}}}
}

// FromDescriptionData creates a Generator for an in-memory contract description.
func FromDescriptionData(data []byte) *Generator {
	return &Generator{cfg: Config{Input: Input{DescriptionData: data}}}
}

// FromPackages creates a Generator extracting services from Go packages.
func FromPackages(pkgs ...string) *Generator {
	return &Generator{cfg: Config{Input: Input{Packages: pkgs}}}
}

// Dir sets the directory Go packages are loaded from.
func (g *Generator) Dir(dir string) *Generator {
	g.cfg.Input.Dir = dir
	return g
}

// BaseType sets the embedded struct name marking Go service definitions.
func (g *Generator) BaseType(name string) *Generator {
	g.cfg.Input.BaseType = name
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	g.cfg.Logger = l
	return g
}

// Target adds an output rendering the named target into dir.
func (g *Generator) Target(name, dir string) *Generator {
	g.cfg.Outputs = append(g.cfg.Outputs, Output{Target: name, Dir: dir})
	return g
}

// TargetSink adds an output rendering the named target into s.
func (g *Generator) TargetSink(name string, s sink.Sink) *Generator {
	g.cfg.Outputs = append(g.cfg.Outputs, Output{Target: name, Sink: s})
	return g
}

// Option sets a target option on the most recently added output.
func (g *Generator) Option(key, value string) *Generator {
	if out := g.last(); out != nil {
		if out.Options == nil {
			out.Options = make(map[string]string)
		}
		out.Options[key] = value
	}
	return g
}

// Exclude skips services by display name on the most recently added output.
func (g *Generator) Exclude(names ...string) *Generator {
	if out := g.last(); out != nil {
		out.Exclude = append(out.Exclude, names...)
	}
	return g
}

func (g *Generator) last() *Output {
	if len(g.cfg.Outputs) == 0 {
		return nil
	}
	return &g.cfg.Outputs[len(g.cfg.Outputs)-1]
}

// Config returns a copy of the accumulated configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate runs generation. This is a terminal operation.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	return Generate(ctx, &g.cfg)
}
