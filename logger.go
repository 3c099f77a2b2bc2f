package vecexport

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with converter-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithJob adds a job name field to the logger.
func (l *Logger) WithJob(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("job", name),
	}
}

// LogLoad logs loading the index.
func (l *Logger) LogLoad(ctx context.Context, path string, n, dim int, typ string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index load failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index loaded",
		"path", path,
		"total_vectors", n,
		"dimension", dim,
		"index_type", typ,
	)
}

// LogReconstruct logs recovering the vectors from the index.
func (l *Logger) LogReconstruct(ctx context.Context, n int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reconstruct failed",
			"count", n,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "vectors reconstructed",
		"count", n,
		"duration", duration,
	)
}

// LogMetadata logs reading the metadata document.
func (l *Logger) LogMetadata(ctx context.Context, path string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "metadata read failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "metadata loaded",
		"path", path,
		"bytes", size,
	)
}

// LogWrite logs writing the output document.
func (l *Logger) LogWrite(ctx context.Context, path string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "output written",
		"path", path,
		"bytes", bytes,
	)
}

// LogIDs warns when an id map labels several vectors with the same id.
func (l *Logger) LogIDs(ctx context.Context, path string, total, distinct int) {
	if distinct == total {
		return
	}
	l.WarnContext(ctx, "index has repeated ids",
		"path", path,
		"ids", total,
		"distinct_ids", distinct,
	)
}

// LogConvert logs the outcome of a whole conversion.
func (l *Logger) LogConvert(ctx context.Context, res *Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "conversion failed",
			"kind", KindOf(err),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "conversion completed",
		"output", res.Output,
		"total_vectors", res.TotalVectors,
		"dimension", res.Dimension,
		"index_type", res.IndexType,
		"bytes", res.BytesWritten,
		"duration", res.Duration,
	)
}

// LogBatch logs the outcome of RunBatch.
func (l *Logger) LogBatch(ctx context.Context, count, failed int, duration time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
			"duration", duration,
		)
		return
	}
	l.InfoContext(ctx, "batch completed",
		"count", count,
		"duration", duration,
	)
}
