package logger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide logger.
type Options struct {
	Level     string // debug, info, warn, error
	Format    string // json or console
	RedactPII bool
}

// Logger provides structured key/value logging with optional PII redaction.
type Logger struct {
	sugar     *zap.SugaredLogger
	level     zap.AtomicLevel
	redactPII bool
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	l, err := Build(Options{Level: "info", Format: "json", RedactPII: true})
	if err != nil {
		l = New(zapcore.NewNopCore(), true)
	}
	defaultLogger.Store(l)
}

// Build creates a Logger writing to stderr.
func Build(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "console", "dev", "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar(), level: cfg.Level, redactPII: opts.RedactPII}, nil
}

// New wraps an existing zap core. Used by tests with an observer core.
func New(core zapcore.Core, redactPII bool) *Logger {
	return &Logger{
		sugar:     zap.New(core, zap.AddCallerSkip(2)).Sugar(),
		level:     zap.NewAtomicLevelAt(zapcore.DebugLevel),
		redactPII: redactPII,
	}
}

// Init replaces the default logger.
func Init(opts Options) error {
	l, err := Build(opts)
	if err != nil {
		return err
	}
	SetDefault(l)
	return nil
}

// SetDefault installs l as the package-level logger.
func SetDefault(l *Logger) { defaultLogger.Store(l) }

// Default returns the package-level logger.
func Default() *Logger { return defaultLogger.Load() }

// SetLevel changes the minimum level of the default logger.
func SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	Default().level.SetLevel(lvl)
	return nil
}

// Sync flushes buffered entries.
func Sync() { _ = Default().sugar.Sync() }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { Default().Debug(msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { Default().Info(msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { Default().Warn(msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { Default().Error(msg, fields...) }

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.sugar.Debugw(msg, l.sanitize(fields)...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.sugar.Infow(msg, l.sanitize(fields)...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.sugar.Warnw(msg, l.sanitize(fields)...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.sugar.Errorw(msg, l.sanitize(fields)...)
}

func (l *Logger) sanitize(fields []interface{}) []interface{} {
	if !l.redactPII || len(fields) == 0 {
		return fields
	}
	out := make([]interface{}, 0, len(fields))
	for i := 0; i < len(fields); i += 2 {
		if i == len(fields)-1 {
			out = append(out, fields[i])
			break
		}
		key := fmt.Sprintf("%v", fields[i])
		out = append(out, key, redactPIIValue(key, fields[i+1]))
	}
	return out
}
