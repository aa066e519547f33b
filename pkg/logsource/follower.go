package logsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultPollInterval = time.Second

// Follower tails a log file the way a live game server writes it. It reads
// the existing content first, then blocks for appended lines. A file that is
// truncated or recreated is read again from the start.
type Follower struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial strings.Builder

	watcher      *fsnotify.Watcher
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewFollower opens path and starts watching its directory.
func NewFollower(path string, logger *slog.Logger) (*Follower, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory so that rotation (remove + create) is seen.
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		_ = w.Close()
		_ = file.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Follower{
		path:         absPath,
		file:         file,
		reader:       bufio.NewReaderSize(file, 64*1024),
		watcher:      w,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}, nil
}

// SetPollInterval changes how often the file is checked when no watcher
// event arrives.
func (f *Follower) SetPollInterval(d time.Duration) {
	if d > 0 {
		f.pollInterval = d
	}
}

// ReadLine blocks until a complete line is available. ok is false once ctx
// is done; a partially written last line is not returned.
func (f *Follower) ReadLine(ctx context.Context) (line string, ok bool, err error) {
	for {
		chunk, err := f.reader.ReadString('\n')
		f.offset += int64(len(chunk))
		f.partial.WriteString(chunk)

		if err == nil {
			line := f.partial.String()
			f.partial.Reset()
			return cleanLine(line), true, nil
		}
		if !errors.Is(err, io.EOF) {
			return "", false, fmt.Errorf("failed to read %s: %w", f.path, err)
		}

		if err := f.wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", false, nil
			}
			return "", false, err
		}
	}
}

// wait returns when there may be new data to read.
func (f *Follower) wait(ctx context.Context) error {
	timer := time.NewTimer(f.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-f.watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}

			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				f.logger.Info("Log file moved away, waiting for it to be recreated", "path", f.path)
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				return f.reopen()
			}
			if ev.Op&fsnotify.Write != 0 {
				return f.checkTruncated()
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			f.logger.Warn("File watcher error", "path", f.path, "error", err)

		case <-timer.C:
			return f.checkTruncated()
		}
	}
}

func (f *Follower) checkTruncated() error {
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	if info.Size() >= f.offset {
		return nil
	}

	f.logger.Info("Log file truncated, reading from start", "path", f.path, "size", info.Size(), "offset", f.offset)
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", f.path, err)
	}
	f.restart()
	return nil
}

func (f *Follower) reopen() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to reopen log file: %w", err)
	}
	_ = f.file.Close()
	f.file = file
	f.restart()
	f.logger.Info("Log file recreated, reading from start", "path", f.path)
	return nil
}

func (f *Follower) restart() {
	f.reader.Reset(f.file)
	f.offset = 0
	f.partial.Reset()
}

func (f *Follower) Close() error {
	return errors.Join(f.watcher.Close(), f.file.Close())
}
