package event

import "log/slog"

// SlogConsumer forwards every event to a structured logger, a ready-made
// "logging/metrics" sink a caller can Subscribe to a Bus.
type SlogConsumer struct {
	Logger *slog.Logger
}

// NewSlogConsumer returns a SlogConsumer writing through logger, or
// slog.Default() when logger is nil.
func NewSlogConsumer(logger *slog.Logger) *SlogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogConsumer{Logger: logger}
}

// Handle logs e at Info level with its type, sequence and attrs.
func (c *SlogConsumer) Handle(e Event) {
	args := []any{"sequence", e.Sequence, "correlation_id", e.CorrelationID.String()}
	for k, v := range e.Attrs {
		args = append(args, k, v)
	}
	c.Logger.Info(string(e.Type), args...)
}
