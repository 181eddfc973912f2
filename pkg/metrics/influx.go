package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement run summaries are written to.
const Measurement = "ledger_run"

// PointWriter is the subset of the InfluxDB blocking write API we use.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Config holds InfluxDB connection settings
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// RunSummary is what a replay reports once it is done.
type RunSummary struct {
	RunID             string
	Workers           int
	Applied           int
	Rejected          int
	InsufficientFunds int
	UnknownTx         int
	IllegalTransition int
	Accounts          int
	LockedAccounts    int
	Duration          time.Duration
}

// Reporter writes run summaries as points.
type Reporter struct {
	writer PointWriter
	close  func()
}

// NewReporter wraps an existing writer.
func NewReporter(w PointWriter) *Reporter {
	return &Reporter{writer: w}
}

// NewInfluxReporter connects to InfluxDB using the blocking write API.
func NewInfluxReporter(cfg Config) (*Reporter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("influxdb url is required")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Reporter{
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		close:  client.Close,
	}, nil
}

// Report writes s stamped with the current time.
func (r *Reporter) Report(ctx context.Context, s RunSummary) error {
	if err := r.writer.WritePoint(ctx, Point(s, time.Now())); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// Close releases the underlying client, if any.
func (r *Reporter) Close() {
	if r.close != nil {
		r.close()
	}
}

// Point converts a summary into a line protocol point.
func Point(s RunSummary, at time.Time) *write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{"run_id": s.RunID},
		map[string]interface{}{
			"workers":            s.Workers,
			"applied":            s.Applied,
			"rejected":           s.Rejected,
			"insufficient_funds": s.InsufficientFunds,
			"unknown_tx":         s.UnknownTx,
			"illegal_transition": s.IllegalTransition,
			"accounts":           s.Accounts,
			"locked_accounts":    s.LockedAccounts,
			"duration_ms":        s.Duration.Milliseconds(),
		},
		at,
	)
}
