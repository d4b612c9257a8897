package observability

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Config captures observability toggles.
type Config struct {
	Enabled bool
}

// ShutdownFunc tears down anything Setup installed.
type ShutdownFunc func(context.Context) error

var (
	mu     sync.RWMutex
	logger *slog.Logger
	state  Config
)

// Setup installs the slog logger that spans report to. Spans are dropped while disabled.
func Setup(ctx context.Context, cfg Config, l *slog.Logger) (ShutdownFunc, error) {
	mu.Lock()
	logger = l
	state = cfg
	mu.Unlock()

	if l != nil && cfg.Enabled {
		l.DebugContext(ctx, "[OBSERVABILITY] spans enabled")
	}
	return func(context.Context) error {
		mu.Lock()
		logger = nil
		state = Config{}
		mu.Unlock()
		return nil
	}, nil
}

// Enabled reports whether spans are being recorded.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return state.Enabled && logger != nil
}

// StartSpan records a lightweight span around one remote operation. The
// returned func must be called with the operation's outcome.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	mu.RLock()
	l, cfg := logger, state
	mu.RUnlock()
	if l == nil || !cfg.Enabled {
		return ctx, func(error) {}
	}

	start := time.Now()
	return ctx, func(err error) {
		level := slog.LevelDebug
		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("operation", operation),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		l.LogAttrs(ctx, level, "obs span", attrs...)
	}
}

// RecordMetric logs one sample at debug level. Labels are emitted sorted by key.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	mu.RLock()
	l, cfg := logger, state
	mu.RUnlock()
	if l == nil || !cfg.Enabled {
		return
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := []slog.Attr{
		slog.String("metric", name),
		slog.Float64("value", value),
	}
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, labels[k]))
	}
	l.LogAttrs(ctx, slog.LevelDebug, "obs metric", attrs...)
}
