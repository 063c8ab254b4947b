package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/sharpness/sharpgen/cmd/sharpgen/internal/check"
	"github.com/sharpness/sharpgen/cmd/sharpgen/internal/gen"
	"github.com/sharpness/sharpgen/cmd/sharpgen/internal/project"
	"github.com/sharpness/sharpgen/internal/config"
)

type CLI struct {
	project.Globals `embed:""`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate client bindings for every configured renderer."`
	Check   check.Cmd  `cmd:"" help:"Build and validate the contract without writing files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *project.Globals) error {
	fmt.Fprintln(g.Out(), Version())
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sharpgen"),
		kong.Description("Extract an API contract and render typed client bindings."),
		kong.UsageOnError(),
		kong.Vars{"config_file": config.FileName},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
