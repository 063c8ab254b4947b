package gen

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sharpness/sharpgen"
	"github.com/sharpness/sharpgen/cmd/sharpgen/internal/project"
	"github.com/sharpness/sharpgen/internal/watch"
)

type Cmd struct {
	Configuration string `arg:"" optional:"" help:"Build configuration substituted for {config} in the contract path (default: Debug)."`
	Watch         bool   `help:"Watch for changes and regenerate." short:"w"`
}

func (c *Cmd) Run(g *project.Globals) error {
	logger := g.Logger()
	cfg, err := g.Load()
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		_, err := sharpgen.Generate(ctx, &sharpgen.Config{
			Input:   project.Input(cfg, c.Configuration),
			Outputs: project.Outputs(cfg),
			Logger:  logger,
		})
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		if !c.Watch {
			return err
		}
		logger.Error("generate failed", slog.Any("error", err))
	}
	if !c.Watch {
		return nil
	}

	var exclude []string
	for _, r := range cfg.Renderers {
		exclude = append(exclude, cfg.OutputDir(r))
	}
	w := &watch.Watcher{
		Root:     cfg.Root,
		Exclude:  exclude,
		Logger:   logger,
		OnChange: run,
	}
	logger.Info("watching for changes", slog.String("root", cfg.Root))
	return w.Run(ctx)
}
