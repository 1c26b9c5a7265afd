package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"voxpost/internal/config"
	"voxpost/internal/logging"
)

const (
	defaultPoll   = 250 * time.Millisecond
	maxLineLength = 1024 * 1024
)

// Options selects which lines Tail emits.
type Options struct {
	// Lines is how many backlog lines to emit; 0 skips the backlog.
	Lines  int
	Follow bool
	Poll   time.Duration
	// Filter, when set, drops lines it returns false for.
	Filter func(line string) bool
}

// DaemonLogPath returns the log file written by the daemon for cfg.
func DaemonLogPath(cfg *config.Config) string {
	return logging.LogFilePath(cfg)
}

// Containing matches lines that include every non-empty needle.
func Containing(needles ...string) func(string) bool {
	var active []string
	for _, n := range needles {
		if n = strings.TrimSpace(n); n != "" {
			active = append(active, n)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, n := range active {
			if !strings.Contains(line, n) {
				return false
			}
		}
		return true
	}
}

// Tail emits the last opts.Lines matching lines of path, then in follow mode
// keeps emitting appended lines until ctx is done. A missing file yields no
// backlog; followers wait for it to appear.
func Tail(ctx context.Context, path string, opts Options, emit func(string)) error {
	lines, offset, err := lastLines(path, opts.Lines, opts.Filter)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		size, err := fileSize(path)
		if err != nil {
			return err
		}
		if size < offset {
			offset = 0
		}
		if size == offset {
			continue
		}
		offset, err = readFrom(path, offset, func(line string) {
			if opts.Filter == nil || opts.Filter(line) {
				emit(line)
			}
		})
		if err != nil {
			return err
		}
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("log path %q is a directory", path)
	}
	return info.Size(), nil
}

// lastLines keeps a ring of the newest limit matching lines.
func lastLines(path string, limit int, filter func(string) bool) ([]string, int64, error) {
	size, err := fileSize(path)
	if err != nil || size == 0 {
		return nil, 0, err
	}
	if limit <= 0 {
		return nil, size, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := readFrom(path, 0, func(line string) {
		if filter != nil && !filter(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// readFrom emits complete lines after offset and returns the offset just
// past the last complete line, so a half-written line is re-read next poll.
func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if len(line) > maxLineLength {
			line = line[:maxLineLength]
		}
		emit(line)
	}
}
