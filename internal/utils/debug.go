package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logPrefix     = "debug-"
	logSuffix     = ".log"
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

var (
	logger    = zerolog.Nop()
	logWriter io.WriteCloser
	logsDir   string
	level     = zerolog.DebugLevel
	mu        sync.RWMutex
)

// ConfigureDebug sets the directory for debug logs. An empty dir disables logging.
func ConfigureDebug(dir string) {
	mu.Lock()
	defer mu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
	logsDir = dir
	if dir == "" {
		logger = zerolog.Nop()
		return
	}

	// lumberjack creates the directory and file on first write
	logWriter = &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("%s%s%s", logPrefix, time.Now().Format("20060102-150405"), logSuffix)),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		LocalTime:  true,
	}
	logger = zerolog.New(logWriter).Level(level).With().Timestamp().Logger()
}

// SetLevel changes the minimum level written to the log ("trace", "debug", "info", ...).
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.DebugLevel
	}

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	logger = logger.Level(lvl)
	return nil
}

// Logger returns the structured logger behind Debug.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug writes a message to the debug log in the configured directory
func Debug(format string, args ...any) {
	l := Logger()
	l.Debug().Msgf(format, args...)
}

// CleanupLogs removes all but the newest keep debug logs in dir and returns
// how many files were deleted.
func CleanupLogs(dir string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read logs dir: %w", err)
	}

	var logs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		logs = append(logs, name)
	}
	if len(logs) <= keep {
		return 0, nil
	}

	// Timestamped names sort chronologically
	sort.Strings(logs)

	removed := 0
	for _, name := range logs[:len(logs)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
