// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide structured logger. It starts as a JSON stdout
// logger so packages can log before InitLogger runs.
var Logger = zap.New(zapcore.NewCore(
	zapcore.NewJSONEncoder(encoderConfig()),
	zapcore.AddSync(os.Stdout),
	zapcore.InfoLevel,
))

// TraceContextKey is the type for request-scoped context keys.
type TraceContextKey string

const (
	// RequestIDKey is the context key for request ID.
	RequestIDKey TraceContextKey = "request_id"
	// UserIDKey is the context key for user ID.
	UserIDKey TraceContextKey = "user_id"
	// TraceIDKey is the context key for trace ID.
	TraceIDKey TraceContextKey = "trace_id"
)

// LogConfig controls the sinks of InitLogger.
type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// InitLogger replaces Logger with one writing to stdout and, when Path is set,
// to a size-rotated file.
func InitLogger(cfg LogConfig) *zap.Logger {
	level := parseLevel(cfg.Level)
	enc := encoderConfig()

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(os.Stdout), level),
	}

	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    nz(cfg.MaxSizeMB, 100),
			MaxBackups: nz(cfg.MaxBackups, 3),
			MaxAge:     nz(cfg.MaxAgeDays, 7),
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(lj), level))
	}

	opts := []zap.Option{zap.AddCaller()}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.Development())
	}

	Logger = zap.New(zapcore.NewTee(cores...), opts...)
	return Logger
}

// FromContext returns Logger annotated with the request, user and trace IDs found in ctx.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Logger
	}
	return Logger.With(ContextFields(ctx)...)
}

// ContextFields extracts the request-scoped identifiers in ctx as zap fields.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if rid, ok := ctx.Value(RequestIDKey).(string); ok && rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok && uid != 0 {
		fields = append(fields, zap.Uint("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
		fields = append(fields, zap.String("trace_id", tid))
	}
	return fields
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

func parseLevel(s string) zapcore.Level {
	switch s {
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

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
