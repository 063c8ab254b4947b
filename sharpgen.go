// Package sharpgen extracts an API contract from server endpoint definitions
// and renders it into strongly-typed client bindings.
//
// Service definitions come from a contract description (YAML or JSON) or
// from Go packages. Each configured output renders the contract with one
// target:
//
//	res, err := sharpgen.Generate(ctx, &sharpgen.Config{
//	    Input: sharpgen.Input{Description: "bin/Debug/contract.yaml"},
//	    Outputs: []sharpgen.Output{
//	        {Target: "angular", Dir: "web/src/app/api"},
//	        {Target: "csharp", Dir: "mobile/Api", Options: map[string]string{"namespace": "Shop.Mobile.Api"}},
//	    },
//	})
package sharpgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharpness/sharpgen/builder"
	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/introspect"
	"github.com/sharpness/sharpgen/provider"
	"github.com/sharpness/sharpgen/render"
	"github.com/sharpness/sharpgen/render/targets"
	"github.com/sharpness/sharpgen/sink"
)

// Input selects where service definitions are loaded from. Exactly one of
// Description, DescriptionData and Packages must be set.
type Input struct {
	// Description is the path of a contract description file.
	Description string

	// DescriptionData is an in-memory contract description.
	DescriptionData []byte

	// Packages are Go package patterns, loaded from Dir.
	Packages []string
	Dir      string

	// BaseType names the embedded struct marking Go service definitions.
	BaseType string
}

// Output configures one render target.
type Output struct {
	// Target is a name known to targets.Get.
	Target string

	// Dir is the output directory. Ignored when Sink is set.
	Dir string

	// Sink overrides the filesystem sink rooted at Dir.
	Sink sink.Sink

	// Exclude lists service display names to skip.
	Exclude []string

	Options map[string]string
}

// Config holds the configuration for a generation run.
type Config struct {
	Input   Input
	Outputs []Output

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// GenerateResult summarizes a generation run.
type GenerateResult struct {
	Assembly *contract.Assembly
	Outputs  []*render.Result
	Elapsed  time.Duration
}

// Load resolves the input into introspected type handles.
func Load(ctx context.Context, in Input) ([]*introspect.Type, error) {
	set := 0
	for _, ok := range []bool{in.Description != "", in.DescriptionData != nil, len(in.Packages) > 0} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, fmt.Errorf("no input: set a description or packages")
	case set > 1:
		return nil, fmt.Errorf("ambiguous input: set exactly one of description, description data or packages")
	}

	if len(in.Packages) > 0 {
		return (&provider.SourceProvider{}).Load(ctx, provider.SourceInputOptions{
			Packages: in.Packages,
			Dir:      in.Dir,
			BaseType: in.BaseType,
		})
	}
	return (&provider.DescriptionProvider{}).Load(ctx, provider.DescriptionInputOptions{
		Path: in.Description,
		Data: in.DescriptionData,
	})
}

// Check loads the input and builds the contract without rendering it.
// Validation problems are joined into the returned error; the assembly is
// returned alongside them so callers can still report on it.
func Check(ctx context.Context, in Input, logger *slog.Logger) (*contract.Assembly, error) {
	types, err := Load(ctx, in)
	if err != nil {
		return nil, err
	}
	asm, err := builder.Build(types, builder.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	if errs := asm.Validate(); len(errs) > 0 {
		return asm, fmt.Errorf("invalid contract: %w", errors.Join(errs...))
	}
	return asm, nil
}

// Generate builds the contract once and renders it with every output, in
// order. Targets are resolved before anything is rendered, so a bad target
// name or option leaves every output untouched.
func Generate(ctx context.Context, cfg *Config) (*GenerateResult, error) {
	start := time.Now()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Outputs) == 0 {
		return nil, fmt.Errorf("no outputs configured")
	}

	renderers := make([]*render.Renderer, len(cfg.Outputs))
	for i, out := range cfg.Outputs {
		target, err := targets.Get(out.Target, out.Options)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		snk := out.Sink
		if snk == nil {
			if out.Dir == "" {
				return nil, fmt.Errorf("output %d (%s): no directory", i, out.Target)
			}
			snk = sink.NewFilesystem(out.Dir)
		}
		renderers[i] = &render.Renderer{Target: target, Sink: snk, Exclude: out.Exclude, Logger: logger}
	}

	asm, err := Check(ctx, cfg.Input, logger)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{Assembly: asm}
	for _, r := range renderers {
		res, err := r.Render(ctx, asm)
		if err != nil {
			return nil, err
		}
		logger.Info("rendered",
			slog.String("target", res.Target),
			slog.Int("services", res.Services),
			slog.Int("models", res.Models),
			slog.Int("files", len(res.Files)),
		)
		result.Outputs = append(result.Outputs, res)
	}

	result.Elapsed = time.Since(start)
	logger.Info("generation complete",
		slog.Int("services", len(asm.Services)),
		slog.Int("endpoints", asm.EndpointCount()),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
