// Package logx provides the colorized slog.Handler used across the engine,
// in the teacher's pretty-logging style.
package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandlerOptions wraps the standard slog.HandlerOptions so callers
// construct a PrettyHandler the same way they construct slog's builtin
// handlers.
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler renders one colorized line per record: a bracketed
// millisecond timestamp, a colored LEVEL: prefix, the message, and a
// trailing JSON object of attributes.
type PrettyHandler struct {
	slog.Handler
	out  io.Writer
	mu   *sync.Mutex
	attr []slog.Attr
}

// NewPrettyHandler constructs a PrettyHandler writing to out.
func NewPrettyHandler(out io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(out, &opts.SlogOpts),
		out:     out,
		mu:      &sync.Mutex{},
	}
}

func levelColor(level slog.Level) (*color.Color, string) {
	switch {
	case level < slog.LevelInfo:
		return color.New(color.FgMagenta), "DEBUG"
	case level < slog.LevelWarn:
		return color.New(color.FgCyan), "INFO"
	case level < slog.LevelError:
		return color.New(color.FgYellow), "WARN"
	default:
		return color.New(color.FgRed), "ERROR"
	}
}

// Handle formats and writes a single log record.
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	c, levelLabel := levelColor(r.Level)

	fields := make(map[string]any, r.NumAttrs()+len(h.attr))
	for _, a := range h.attr {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	timestamp := r.Time.Format("15:04:05.000")
	levelPrefix := c.Sprintf("%s:", levelLabel)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprintf(h.out, "[%s] %s %s %s\n", timestamp, levelPrefix, r.Message, string(body))
	return err
}

// WithAttrs returns a new PrettyHandler that always includes attrs.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithAttrs(attrs),
		out:     h.out,
		mu:      h.mu,
		attr:    append(append([]slog.Attr{}, h.attr...), attrs...),
	}
}

// WithGroup returns a new PrettyHandler scoped to the named group.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithGroup(name),
		out:     h.out,
		mu:      h.mu,
		attr:    h.attr,
	}
}
