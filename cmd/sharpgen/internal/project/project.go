// Package project holds the state shared by sharpgen commands: global
// flags, the logger and the loaded project file.
package project

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sharpness/sharpgen"
	"github.com/sharpness/sharpgen/internal/config"
)

// Globals are the flags accepted by every command.
type Globals struct {
	Verbose   bool   `help:"Enable debug logging." short:"v"`
	LogFormat string `help:"Log output format." enum:"text,json" default:"text" name:"log-format"`
	Config    string `help:"Path to ${config_file} (default: search upward from the working directory)." short:"c" type:"path"`

	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer `kong:"-"`
	// Stderr receives log records. Defaults to os.Stderr.
	Stderr io.Writer `kong:"-"`
}

// Out returns the command output writer.
func (g *Globals) Out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// Logger builds the logger selected by the flags.
func (g *Globals) Logger() *slog.Logger {
	w := g.Stderr
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if g.Verbose {
		opts.Level = slog.LevelDebug
	}
	if g.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Load reads the project file named by --config, or the nearest one above
// the working directory.
func (g *Globals) Load() (*config.Config, error) {
	path := g.Config
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working dir: %w", err)
		}
		if path, err = config.Find(wd); err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// Input maps the project input for a build configuration.
func Input(cfg *config.Config, configuration string) sharpgen.Input {
	if len(cfg.Packages) > 0 {
		return sharpgen.Input{
			Packages: cfg.Packages,
			Dir:      cfg.PackageDir(),
			BaseType: cfg.BaseType,
		}
	}
	return sharpgen.Input{Description: cfg.ContractPath(configuration)}
}

// Outputs maps the project renderers.
func Outputs(cfg *config.Config) []sharpgen.Output {
	outs := make([]sharpgen.Output, len(cfg.Renderers))
	for i, r := range cfg.Renderers {
		outs[i] = sharpgen.Output{
			Target:  r.Target,
			Dir:     cfg.OutputDir(r),
			Exclude: r.Exclude,
			Options: r.Options,
		}
	}
	return outs
}
