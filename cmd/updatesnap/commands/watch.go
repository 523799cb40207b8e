package commands

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/runner"
	"git.home.luguber.info/inful/updatesnap/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Target   string        `arg:"" optional:"" default:"." help:"Folder of the snapcraft project, or an http(s) URL of a snapcraft.yaml"`
	Interval time.Duration `help:"Time between scheduled checks (overrides watch.interval)"`
	Addr     string        `help:"Listen address of the status server (overrides watch.addr)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	targets, err := runner.ResolveTargets(w.Target, false)
	if err != nil {
		return err
	}
	secretsDir := ""
	if !runner.IsURL(w.Target) {
		secretsDir = w.Target
	}
	cfg, err := root.load(g, secretsDir)
	if err != nil {
		return err
	}
	if w.Interval > 0 {
		cfg.Watch.Interval = w.Interval
	}
	if w.Addr != "" {
		cfg.Watch.Addr = w.Addr
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, err := newEnvironment(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer env.Close()

	svc := watch.New(env.runner(nil), watch.Options{
		Target:   targets[0],
		Interval: cfg.Watch.Interval,
		Debounce: cfg.Watch.Debounce,
		Addr:     cfg.Watch.Addr,
		Registry: env.registry,
		Logger:   g.Logger,
	})
	g.Logger.Info("Starting watch mode", logfields.File(targets[0]), slog.Duration("interval", cfg.Watch.Interval))
	return svc.Run(ctx)
}
