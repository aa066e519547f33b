package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/internal/config"
	"github.com/jwebster45206/q3a-report/internal/storage"
	"github.com/jwebster45206/q3a-report/pkg/game"
	"github.com/jwebster45206/q3a-report/pkg/grammar"
	"github.com/jwebster45206/q3a-report/pkg/logsource"
)

const usage = "Usage: console LOG-FILE | console -run RUN-ID [-live]"

func main() {
	runFlag := flag.String("run", "", "browse a run stored in Redis instead of a log file")
	live := flag.Bool("live", false, "with -run, keep receiving reports as they are published")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		ui  ConsoleUI
		err error
	)
	switch {
	case *runFlag != "":
		ui, err = openRun(ctx, *runFlag, *live)
	case flag.NArg() > 0:
		ui, err = openLog(ctx, flag.Arg(0))
	default:
		err = fmt.Errorf("missing file\n%s", usage)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p := tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	_, err = p.Run()

	cancel()
	if closeErr := ui.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing report store: %v\n", closeErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// openLog parses a whole log file. Lines that fail to parse are counted and
// skipped, and a game cut off by the end of the file is shown as well.
func openLog(ctx context.Context, path string) (ConsoleUI, error) {
	f, err := logsource.Open(path)
	if err != nil {
		return ConsoleUI{}, err
	}
	defer f.Close()

	reports, unfinished, failed, err := loadReports(ctx, f.Reader)
	if err != nil {
		return ConsoleUI{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if unfinished != nil {
		reports = append(reports, unfinished)
	}
	if len(reports) == 0 {
		return ConsoleUI{}, fmt.Errorf("no games found in %s", path)
	}

	ui := NewConsoleUI(path, reports)
	ui.unfinished = unfinished != nil
	if failed > 0 {
		ui.status = fmt.Sprintf("%d lines could not be parsed", failed)
	}
	return ui, nil
}

func loadReports(ctx context.Context, r *logsource.Reader) (reports []*game.Report, unfinished *game.Report, failed int, err error) {
	p := game.NewParser()
	for {
		line, ok, err := r.ReadLine(ctx)
		if err != nil {
			return nil, nil, 0, err
		}
		if !ok {
			break
		}
		if grammar.IsBlank(line) {
			continue
		}

		report, err := p.ProcessLine(line)
		if err != nil {
			failed++
			continue
		}
		if report != nil {
			reports = append(reports, report)
		}
	}

	if p.TotalKills() > 0 || len(p.Players()) > 0 {
		unfinished = p.Snapshot()
	}
	return reports, unfinished, failed, nil
}

// openRun loads a stored run. With live set the UI also subscribes to the
// run's channel, so it can be opened before the run has emitted anything.
func openRun(ctx context.Context, rawID string, live bool) (ConsoleUI, error) {
	runID, err := uuid.Parse(rawID)
	if err != nil {
		return ConsoleUI{}, fmt.Errorf("invalid run id %q: %w", rawID, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return ConsoleUI{}, err
	}
	if cfg.RedisURL == "" {
		return ConsoleUI{}, fmt.Errorf("REDIS_URL must be set to browse a stored run")
	}

	// The terminal belongs to the UI, so store logs are dropped.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewRedisStore(cfg.RedisURL, cfg.ReportTTL, logger)
	if err != nil {
		return ConsoleUI{}, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return ConsoleUI{}, err
	}

	// Subscribe before listing so that no report falls between the two.
	var updates <-chan *game.Report
	if live {
		updates, err = store.Subscribe(ctx, runID)
		if err != nil {
			_ = store.Close()
			return ConsoleUI{}, err
		}
	}

	reports, err := store.ListReports(ctx, runID)
	if err != nil {
		_ = store.Close()
		return ConsoleUI{}, err
	}
	if len(reports) == 0 && !live {
		_ = store.Close()
		return ConsoleUI{}, fmt.Errorf("no reports stored for run %s", runID)
	}

	ui := NewConsoleUI("run "+runID.String(), reports)
	ui.updates = updates
	ui.closer = store
	return ui, nil
}
