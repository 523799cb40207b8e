package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	"git.home.luguber.info/inful/updatesnap/internal/config"
	"git.home.luguber.info/inful/updatesnap/internal/forge"
	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/history"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/metrics"
	"git.home.luguber.info/inful/updatesnap/internal/notify"
	"git.home.luguber.info/inful/updatesnap/internal/retry"
	"git.home.luguber.info/inful/updatesnap/internal/runner"
)

// errFlagged makes the process exit with status 1 after a run that raised
// the error flag.
var errFlagged = ferrors.PartError("one or more parts need attention").Build()

// Global is shared state passed to every command.
type Global struct {
	Logger *slog.Logger
	// Out receives reports, Err receives progress messages.
	Out io.Writer
	Err io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (default: ~/.config/updatesnap/updatesnap.yaml)"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	GitHubUser  string           `name:"github-user" help:"User name for accessing GitHub projects"`
	GitHubToken string           `name:"github-token" help:"Access token for accessing GitHub projects"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check  CheckCmd  `cmd:"" help:"Check the parts of a snapcraft project for newer upstream versions"`
	Update UpdateCmd `cmd:"" help:"Rewrite the snapcraft.yaml of a remote project with the newest versions"`
	Watch  WatchCmd  `cmd:"" help:"Keep checking a snapcraft project and serve the results over HTTP"`
}

// AfterApply runs after flag parsing; set up logging until the
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// load reads the configuration, applies the credential flags and installs
// the configured logger.
func (c *CLI) load(g *Global, secretsDir string) (*config.Config, error) {
	cfg, err := config.Load(c.Config, secretsDir)
	if err != nil {
		return nil, err
	}
	if c.GitHubUser != "" {
		cfg.Secrets.GitHub.User = c.GitHubUser
	}
	if c.GitHubToken != "" {
		cfg.Secrets.GitHub.Token = c.GitHubToken
	}
	if g.Err == nil {
		g.Err = os.Stderr
	}
	if g.Out == nil {
		g.Out = os.Stdout
	}
	g.Logger = slog.New(cfg.Logging.NewHandler(g.Err, c.Verbose))
	slog.SetDefault(g.Logger)
	g.Logger.Debug("Configuration loaded", slog.String("config", cfg.String()))
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// environment holds the collaborators built from the configuration.
type environment struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	recorder  *metrics.PrometheusRecorder
	forgeOpts forge.Options
	forges    *forge.Registry
	history   history.Store
	publisher notify.Publisher
}

func newEnvironment(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*environment, error) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	opts := forge.Options{Retry: retry.FromConfig(cfg.Retry), Recorder: rec, Logger: logger}
	env := &environment{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		recorder:  rec,
		forgeOpts: opts,
		forges:    forge.NewDefaultRegistry(cfg.Secrets, opts),
		publisher: notify.Noop{},
	}
	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		env.history = store
	}
	pub, err := notify.New(ctx, cfg.Notify, logger)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.publisher = pub
	return env, nil
}

func (e *environment) runner(diagnostics checker.DiagnosticFunc) *runner.Runner {
	return runner.New(runner.Options{
		Lister:      e.forges,
		Fetcher:     forge.NewBaseForge("http", e.forgeOpts),
		History:     e.history,
		Publisher:   e.publisher,
		Recorder:    e.recorder,
		Logger:      e.logger,
		Diagnostics: diagnostics,
	})
}

// Close releases the stores and writes the metrics textfile, if one is
// configured.
func (e *environment) Close() {
	if e.publisher != nil {
		if err := e.publisher.Close(); err != nil {
			e.logger.Warn("Failed to close publisher", logfields.Error(err))
		}
	}
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			e.logger.Warn("Failed to close history store", logfields.Error(err))
		}
	}
	if path := e.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(e.registry, path); err != nil {
			e.logger.Warn("Failed to write metrics", logfields.Error(err))
		}
	}
}
