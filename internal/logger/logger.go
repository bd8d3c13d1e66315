// Package logger builds the process logger: human-readable output on stderr, JSON lines
// appended to a file, and a short in-memory history for the console.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFilePath is relative to the working directory.
const DefaultFilePath = "logs/preview.log"

// DefaultHistory is how many recent entries the console can show.
const DefaultHistory = 200

// Options select level, stderr format and file.
type Options struct {
	Level string // debug, info, warn, error; anything else is info
	// Format is "console" (coloured) or "json".
	Format string
	// FilePath receives JSON lines. Empty disables file output.
	FilePath string
	History  int
}

// Logger is a zap logger plus the recent lines it wrote.
type Logger struct {
	*zap.Logger
	history *history
	file    *os.File
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the logger. The log file's directory is created if needed.
func New(opts Options) (*Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}

	var stderrEnc zapcore.Encoder
	if opts.Format == "json" {
		stderrEnc = zapcore.NewJSONEncoder(jsonEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stderrEnc = zapcore.NewConsoleEncoder(cfg)
	}

	hist := newHistory(opts.History)
	plain := zap.NewDevelopmentEncoderConfig()
	plain.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(stderrEnc, zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(plain), hist, level),
	}

	l := &Logger{history: hist}
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open %s: %w", opts.FilePath, err)
		}
		l.file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), zapcore.AddSync(f), level))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return l, nil
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Lines returns up to n of the most recent entries, oldest first. n <= 0 returns all kept.
func (l *Logger) Lines(n int) []string {
	return l.history.recent(n)
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// history is a bounded in-memory sink.
type history struct {
	mu  sync.Mutex
	max int
	buf []string
}

func newHistory(size int) *history {
	return &history{max: size}
}

func (h *history) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	h.mu.Lock()
	h.buf = append(h.buf, line)
	if over := len(h.buf) - h.max; over > 0 {
		h.buf = append(h.buf[:0], h.buf[over:]...)
	}
	h.mu.Unlock()
	return len(p), nil
}

func (h *history) Sync() error { return nil }

func (h *history) recent(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	start := 0
	if n > 0 && n < len(h.buf) {
		start = len(h.buf) - n
	}
	out := make([]string, len(h.buf)-start)
	copy(out, h.buf[start:])
	return out
}
