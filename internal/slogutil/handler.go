package slogutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/natefinch/lumberjack"
)

// Hook is called when a slog record is handled.
type Hook interface {
	Run(ctx context.Context, r *slog.Record)
}

// DiagnosticsSource reports a component's live operational counters,
// attached to every log record by the default diagnostics hook. segment.Pool
// and taskrunner.TaskRunner both satisfy this by structural typing — neither
// imports slogutil, they just happen to have a matching Diagnostics method.
type DiagnosticsSource interface {
	Diagnostics() []slog.Attr
}

var (
	diagMu      sync.Mutex
	diagSources = map[string]DiagnosticsSource{}
)

// RegisterDiagnostics makes src's live counters available to every log
// record under a group named name (e.g. "segment_pool", "task_runner").
// Typically called once at process startup, right after the component is
// constructed.
func RegisterDiagnostics(name string, src DiagnosticsSource) {
	diagMu.Lock()
	defer diagMu.Unlock()
	diagSources[name] = src
}

// UnregisterDiagnostics removes a previously registered source, e.g. when
// its owning component is shut down.
func UnregisterDiagnostics(name string) {
	diagMu.Lock()
	defer diagMu.Unlock()
	delete(diagSources, name)
}

// diagnosticsHook attaches every registered DiagnosticsSource's current
// counters to each record it sees, grouped under the name it was
// registered with, so a segment-pool-exhaustion or task-runner-backlog
// incident shows up on whatever log line happened to be emitted at the
// time rather than requiring a separate metrics scrape.
type diagnosticsHook struct{}

func (diagnosticsHook) Run(_ context.Context, r *slog.Record) {
	diagMu.Lock()
	defer diagMu.Unlock()
	for name, src := range diagSources {
		attrs := src.Diagnostics()
		if len(attrs) == 0 {
			continue
		}
		args := make([]any, len(attrs))
		for i, a := range attrs {
			args[i] = a
		}
		r.AddAttrs(slog.Group(name, args...))
	}
}

// Handler is a slog.Handler with hooks support.
type Handler struct {
	handler slog.Handler
	hooks   []Hook
}

// NewHandler creates a new Handler with the given configuration.
func NewHandler(config ...Config) Handler {
	cfg := mergeConfig(config...)

	replaceAttr := changeMsgKey(cfg.ReplaceAttr)

	base := slog.NewJSONHandler(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    5,
		MaxAge:     14,
		MaxBackups: 5,
	}), &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceAttr,
	})

	return WrapHandler(base).WithHooks(cfg.Hooks...)
}

// WrapHandler creates a new Handler with the given slog.Handler.
// If the provided handler is nil, a default JSON handler is used.
func WrapHandler(h slog.Handler) Handler {
	if h == nil {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}

	return Handler{
		handler: h,
		hooks: []Hook{
			dataHook{},
			diagnosticsHook{},
		},
	}
}

func (h Handler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.handler.Enabled(ctx, l)
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.hooks) > 0 {
		r = r.Clone()

		for _, hook := range h.hooks {
			hook.Run(ctx, &r)
		}
	}

	return h.handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{
		hooks:   h.hooks,
		handler: h.handler.WithAttrs(attrs),
	}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{
		hooks:   h.hooks,
		handler: h.handler.WithGroup(name),
	}
}

func (h Handler) WithHooks(hooks ...Hook) Handler {
	if len(hooks) == 0 {
		return h
	}

	return Handler{
		hooks:   slices.Concat(h.hooks, hooks),
		handler: h.handler,
	}
}

const MessageKey = "message"

func changeMsgKey(fn ReplaceAttrFunc) ReplaceAttrFunc {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.MessageKey {
			a = slog.String(MessageKey, a.Value.String())
		}

		if fn != nil {
			return fn(groups, a)
		}

		return a
	}
}
