// Package watch keeps checking one snapcraft project: on a schedule, when
// the local file changes and on request over HTTP.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/runner"
)

// Triggers recorded on run summaries.
const (
	TriggerSchedule = "schedule"
	TriggerFile     = "file"
	TriggerHTTP     = "http"
)

// Checker runs a check of a target. *runner.Runner implements it.
type Checker interface {
	Check(ctx context.Context, target, trigger string, parts []string) (*runner.Summary, error)
}

// Options configures a Service.
type Options struct {
	// Target is a snapcraft file path or an http(s) URL. Local files are
	// also watched for changes.
	Target   string
	Interval time.Duration
	Debounce time.Duration
	Addr     string
	// Registry backs /metrics. A nil registry disables the route.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Service is the long running watch mode.
type Service struct {
	checker Checker
	opts    Options
	logger  *slog.Logger
	errs    *ferrors.HTTPErrorAdapter

	// runMu serializes checks from every trigger.
	runMu sync.Mutex

	mu      sync.RWMutex
	last    *runner.Summary
	lastErr error
}

// New creates a Service.
func New(c Checker, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = 6 * time.Hour
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	return &Service{
		checker: c,
		opts:    opts,
		logger:  opts.Logger,
		errs:    ferrors.NewHTTPErrorAdapter(opts.Logger),
	}
}

// RunOnce runs a check and stores its summary.
func (s *Service) RunOnce(ctx context.Context, trigger string) (*runner.Summary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	sum, err := s.checker.Check(ctx, s.opts.Target, trigger, nil)

	s.mu.Lock()
	if err == nil {
		s.last = sum
	}
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Check failed", slog.String("trigger", trigger), logfields.Error(err))
		return nil, err
	}
	return sum, nil
}

// Last returns the most recent successful summary and the error of the
// most recent run, if it failed.
func (s *Service) Last() (*runner.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastErr
}

// Run starts the schedule, the file watch and the HTTP server, and blocks
// until ctx is canceled or the server fails.
func (s *Service) Run(ctx context.Context) error {
	sched, err := s.startScheduler(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			s.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}()

	if !runner.IsURL(s.opts.Target) {
		fw, err := newFileWatcher(s.opts.Target, s.opts.Debounce, func() {
			_, _ = s.RunOnce(ctx, TriggerFile)
		}, s.logger)
		if err != nil {
			return err
		}
		if err := fw.Start(ctx); err != nil {
			_ = fw.Close()
			return err
		}
		defer func() { _ = fw.Close() }()
	}

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Watch server listening", slog.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNetwork, "watch server failed").
				WithContext("addr", s.opts.Addr).
				Build()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "watch server shutdown failed").Build()
	}
	s.logger.Info("Watch stopped")
	return nil
}

func (s *Service) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.opts.Interval),
		gocron.NewTask(func() { _, _ = s.RunOnce(ctx, TriggerSchedule) }),
		gocron.WithName("updatesnap-check"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to schedule check").Build()
	}
	sched.Start()
	s.logger.Info("Scheduled periodic check",
		logfields.ScheduleName("updatesnap-check"),
		slog.Duration("interval", s.opts.Interval))
	return sched, nil
}
