package check

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sharpness/sharpgen"
	"github.com/sharpness/sharpgen/cmd/sharpgen/internal/project"
	"github.com/sharpness/sharpgen/contract"
	"github.com/sharpness/sharpgen/walker"
)

type Cmd struct {
	Configuration string `arg:"" optional:"" help:"Build configuration substituted for {config} in the contract path (default: Debug)."`
	JSON          bool   `help:"Print the contract as JSON." name:"json"`
}

func (c *Cmd) Run(g *project.Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}

	asm, err := sharpgen.Check(context.Background(), project.Input(cfg, c.Configuration), g.Logger())
	if err != nil {
		return err
	}

	out := g.Out()
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(asm)
	}

	models, err := CountModels(asm)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %d services, %d endpoints, %d models\n", len(asm.Services), asm.EndpointCount(), models)
	fmt.Fprintln(out, "✓ All types resolvable")
	return nil
}

// CountModels walks every service's types and counts the distinct models
// reachable from them.
func CountModels(asm *contract.Assembly) (int, error) {
	visited := make(walker.Visited)
	n := 0
	for _, svc := range asm.Services {
		for _, ref := range svc.Types {
			res, err := walker.Walk(ref, visited)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", svc.DisplayName(), err)
			}
			n += len(res.Discovered)
		}
	}
	return n, nil
}
