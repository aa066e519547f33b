// Package runner drives a line source through the game parser and hands
// every finished report to stdout and, when configured, the report store.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/internal/storage"
	"github.com/jwebster45206/q3a-report/pkg/game"
	"github.com/jwebster45206/q3a-report/pkg/grammar"
)

// LineSource yields log lines without their trailing newline. ok is false
// once the source is exhausted or ctx is done.
type LineSource interface {
	ReadLine(ctx context.Context) (line string, ok bool, err error)
}

type Options struct {
	// Out receives each report as indented JSON. Nil discards reports.
	Out io.Writer
	// Store is optional; reports are saved under RunID when set.
	Store  storage.ReportStore
	RunID  uuid.UUID
	Logger *slog.Logger

	// Strict aborts the run on the first line that fails to parse.
	Strict bool
	// FlushOnEOF emits the game in progress when the source ends before a
	// ShutdownGame line.
	FlushOnEOF bool
}

// Summary describes a finished run.
type Summary struct {
	LinesRead   int
	LinesFailed int
	Reports     int
}

// Runner owns one parser for the whole run; games never carry state into
// each other because the parser resets on every ShutdownGame.
type Runner struct {
	opts Options
	log  *slog.Logger

	// mu guards the parser and finished reports for readers outside Run.
	mu       sync.RWMutex
	parser   *game.Parser
	finished []*game.Report
}

// New creates a runner. A zero RunID is replaced with a fresh one.
func New(opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}

	return &Runner{
		opts:   opts,
		parser: game.NewParser(),
		log:    opts.Logger.With("run_id", opts.RunID.String()),
	}
}

// RunID identifies the run in logs and in the report store.
func (r *Runner) RunID() uuid.UUID {
	return r.opts.RunID
}

// Run reads source until it is exhausted or ctx is done. Read and output
// errors end the run; parse errors end it only in strict mode.
func (r *Runner) Run(ctx context.Context, source LineSource) (Summary, error) {
	var sum Summary
	r.log.Info("Run starting", "strict", r.opts.Strict, "flush_on_eof", r.opts.FlushOnEOF)

	for {
		line, ok, err := source.ReadLine(ctx)
		if err != nil {
			return sum, fmt.Errorf("failed to read line %d: %w", sum.LinesRead+1, err)
		}
		if !ok {
			break
		}
		sum.LinesRead++

		if grammar.IsBlank(line) {
			r.log.Debug("Skipping blank line", "line_number", sum.LinesRead)
			continue
		}

		report, err := r.process(line)
		if err != nil {
			sum.LinesFailed++
			if r.opts.Strict {
				return sum, fmt.Errorf("line %d: %w", sum.LinesRead, err)
			}
			r.log.Warn("Skipping line",
				"line_number", sum.LinesRead,
				"game", r.parser.GameIndex(),
				"line", line,
				"error", err,
			)
			continue
		}
		if report == nil {
			continue
		}

		if err := r.emit(ctx, report); err != nil {
			return sum, err
		}
		sum.Reports++
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return sum, err
	}

	if r.opts.FlushOnEOF && r.hasGameInProgress() {
		report := r.Current()
		r.log.Info("Flushing unfinished game", "game", report.Game)
		// A run stopped by a signal still saves the flushed game.
		if err := r.emit(context.WithoutCancel(ctx), report); err != nil {
			return sum, err
		}
		sum.Reports++
	}

	r.log.Info("Run finished",
		"lines_read", sum.LinesRead,
		"lines_failed", sum.LinesFailed,
		"reports", sum.Reports,
	)
	return sum, nil
}

func (r *Runner) process(line string) (*game.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, err := r.parser.ProcessLine(line)
	if report != nil {
		r.finished = append(r.finished, report)
	}
	return report, err
}

func (r *Runner) hasGameInProgress() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parser.TotalKills() > 0 || len(r.parser.Players()) > 0
}

// Current renders the game in progress. It is safe to call while Run is
// reading.
func (r *Runner) Current() *game.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parser.Snapshot()
}

// Finished returns the reports of the games closed so far, oldest first.
func (r *Runner) Finished() []*game.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*game.Report(nil), r.finished...)
}

func (r *Runner) emit(ctx context.Context, report *game.Report) error {
	data, err := FormatReport(report)
	if err != nil {
		return err
	}
	if _, err := r.opts.Out.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", report.Key(), err)
	}

	r.log.Debug("Report emitted", "game", report.Key(), "total_kills", report.TotalKills)

	if r.opts.Store == nil {
		return nil
	}
	if err := r.opts.Store.SaveReport(ctx, r.opts.RunID, report); err != nil {
		// Store failures are logged, not fatal.
		r.log.Error("Failed to store report", "game", report.Key(), "error", err)
	}
	return nil
}

// FormatReport renders report as tab-indented JSON followed by a newline.
func FormatReport(report *game.Report) ([]byte, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", report.Key(), err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "\t"); err != nil {
		return nil, fmt.Errorf("failed to indent %s: %w", report.Key(), err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
