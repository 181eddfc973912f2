// Package app wires a replay run: input file, engine, snapshot and the
// optional event and metrics sinks.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/terminal-bench/txengine/internal/config"
	"github.com/terminal-bench/txengine/internal/ingest"
	"github.com/terminal-bench/txengine/internal/ledger"
	"github.com/terminal-bench/txengine/internal/logging"
	"github.com/terminal-bench/txengine/internal/report"
	"github.com/terminal-bench/txengine/internal/router"
	"github.com/terminal-bench/txengine/pkg/circuit"
	"github.com/terminal-bench/txengine/pkg/decimal"
	"github.com/terminal-bench/txengine/pkg/messaging"
	"github.com/terminal-bench/txengine/pkg/metrics"
)

// ErrMissingInput is returned when no input path is given.
var ErrMissingInput = errors.New("missing input path")

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2

	flushTimeout = 5 * time.Second
)

// ExitCode maps a Run error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrMissingInput):
		return exitUsage
	default:
		return exitFatal
	}
}

// App holds the collaborators of a run.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	runID  string
	out    io.Writer

	publisher messaging.Publisher
	reporter  *metrics.Reporter
	closers   []func()
}

// Option overrides a collaborator that New would otherwise build from cfg.
type Option func(*App)

func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithOutput sets where the snapshot is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

func WithPublisher(pub messaging.Publisher) Option {
	return func(a *App) { a.publisher = pub }
}

func WithMetrics(w metrics.PointWriter) Option {
	return func(a *App) { a.reporter = metrics.NewReporter(w) }
}

// New builds an App. Event and metrics sinks are optional: when they cannot
// be reached the run goes on without them.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		logger, _, err := logging.New(logging.Config{Environment: cfg.Environment, Level: cfg.LogLevel})
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.closers = append(a.closers, func() { _ = logger.Sync() })
	}
	a.logger, a.runID = logging.WithRunID(a.logger)

	if a.publisher == nil && cfg.NATSURL != "" {
		client, err := messaging.NewClient(messaging.Config{URL: cfg.NATSURL})
		if err != nil {
			a.logger.Warn("event publication disabled", zap.String("url", cfg.NATSURL), zap.Error(err))
		} else {
			a.publisher = client
			a.closers = append(a.closers, func() { a.closeNATS(client) })
		}
	}
	if a.publisher != nil {
		a.publisher = messaging.NewGuardedPublisher(a.publisher, circuit.NewBreaker(circuit.Config{
			Name:        "nats",
			MaxFailures: 5,
			Timeout:     10 * time.Second,
			OnStateChange: func(name string, from, to circuit.State) {
				a.logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}))
	}

	if a.reporter == nil && cfg.Influx.URL != "" {
		reporter, err := metrics.NewInfluxReporter(cfg.Influx)
		if err != nil {
			a.logger.Warn("run metrics disabled", zap.Error(err))
		} else {
			a.reporter = reporter
			a.closers = append(a.closers, reporter.Close)
		}
	}

	return a, nil
}

// RunID identifies this run in logs, events and metrics.
func (a *App) RunID() string {
	return a.runID
}

// Logger returns the run logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run replays the file named by args[0] and writes the snapshot. Nothing is
// written when the input cannot be read or parsed.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return ErrMissingInput
	}
	path := args[0]
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	opts := []router.Option{router.WithLogger(a.logger)}
	if a.publisher != nil {
		opts = append(opts, router.WithPublisher(a.publisher, a.cfg.SubjectPrefix))
	}
	engine := router.NewEngine(a.cfg.Workers, opts...)

	a.logger.Info("replay started", zap.String("input", path), zap.Int("workers", a.cfg.Workers))

	if err := engine.Process(ctx, ingest.NewReader(bufio.NewReader(f))); err != nil {
		return fmt.Errorf("failed to process %s: %w", path, err)
	}

	accounts := engine.All()
	if a.cfg.SortedOutput {
		accounts = engine.Sorted()
	}
	if err := report.NewWriter(a.out).Write(accounts); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	a.publishSnapshots(ctx, engine.All())

	stats := engine.Stats()
	summary := summarize(a.runID, a.cfg.Workers, stats, engine.All(), time.Since(start))
	a.reportMetrics(ctx, summary)

	a.logger.Info("replay finished",
		zap.Int("applied", stats.Applied),
		zap.Int("rejected", stats.Rejected),
		zap.Int("accounts", summary.Accounts),
		zap.Int("locked_accounts", summary.LockedAccounts),
		zap.Duration("duration", summary.Duration),
	)
	return nil
}

// Close flushes and releases the sinks New opened.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) publishSnapshots(ctx context.Context, accounts iter.Seq2[ledger.ClientID, *ledger.Account]) {
	if a.publisher == nil {
		return
	}

	subject := messaging.Subject(a.cfg.SubjectPrefix, messaging.EventTypeAccountSnapshot)
	for client, acc := range accounts {
		event, err := messaging.NewEvent(messaging.EventTypeAccountSnapshot, messaging.AccountSnapshotEvent{
			RunID:     a.runID,
			Client:    uint16(client),
			Available: decimal.Format(acc.Available()),
			Held:      decimal.Format(acc.Held()),
			Total:     decimal.Format(acc.Total()),
			Locked:    acc.Locked(),
		}, "app")
		if err == nil {
			err = a.publisher.Publish(ctx, subject, event)
		}
		if errors.Is(err, circuit.ErrCircuitOpen) {
			a.logger.Warn("snapshot publication aborted", zap.Error(err))
			return
		}
		if err != nil {
			a.logger.Debug("publish failed", zap.Uint16("client", uint16(client)), zap.Error(err))
		}
	}
}

func (a *App) reportMetrics(ctx context.Context, summary metrics.RunSummary) {
	if a.reporter == nil {
		return
	}
	if err := a.reporter.Report(ctx, summary); err != nil {
		a.logger.Warn("failed to report run metrics", zap.Error(err))
	}
}

func (a *App) closeNATS(client *messaging.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := client.Flush(ctx); err != nil {
		a.logger.Warn("failed to flush events", zap.Error(err))
	}
	if err := client.Close(); err != nil {
		a.logger.Warn("failed to close NATS connection", zap.Error(err))
	}
}

func summarize(runID string, workers int, stats router.Stats, accounts iter.Seq2[ledger.ClientID, *ledger.Account], elapsed time.Duration) metrics.RunSummary {
	s := metrics.RunSummary{
		RunID:             runID,
		Workers:           workers,
		Applied:           stats.Applied,
		Rejected:          stats.Rejected,
		InsufficientFunds: stats.InsufficientFunds,
		UnknownTx:         stats.UnknownTx,
		IllegalTransition: stats.IllegalTransition,
		Duration:          elapsed,
	}
	for _, acc := range accounts {
		s.Accounts++
		if acc.Locked() {
			s.LockedAccounts++
		}
	}
	return s
}
