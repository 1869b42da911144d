package canutil

import (
	"context"
	"errors"
	"log/slog"
)

// LogOption is a bitmask for selecting which operations to log.
type LogOption uint8

const (
	LogNone  LogOption = 0
	LogRead  LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedBus wraps the given Bus and logs selected operations at the given
// level. Errors are always logged at slog.LevelError. When filter is
// non-nil only frames it matches are logged.
func NewLoggedBus(inner Bus, logger *slog.Logger, level slog.Level, opts LogOption, filter FrameFilter) Bus {
	return &loggedBus{
		inner:  inner,
		logger: logger,
		level:  level,
		opts:   opts,
		filter: filter,
	}
}

type loggedBus struct {
	inner  Bus
	logger *slog.Logger
	level  slog.Level
	opts   LogOption
	filter FrameFilter
}

func (l *loggedBus) wants(f Frame) bool {
	return l.filter == nil || l.filter(f)
}

func frameAttrs(f Frame) []any {
	return []any{
		"id", f.ID,
		"extended", f.Extended,
		"rtr", f.RTR,
		"len", int(f.Len),
		"data", f.Data[:min(int(f.Len), 8)],
		"string", f.String(),
	}
}

// Send logs the frame and the result when write logging is enabled.
func (l *loggedBus) Send(ctx context.Context, frame Frame) error {
	if l.opts&LogWrite != 0 && l.wants(frame) {
		l.logger.Log(ctx, l.level, "canutil send", frameAttrs(frame)...)
	}
	err := l.inner.Send(ctx, frame)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.Log(ctx, slog.LevelError, "canutil send error",
			"id", frame.ID,
			"error", err,
		)
	}
	return err
}

// Receive logs the received frame or error when read logging is enabled.
// A receive ended by cancelling ctx is not an error.
func (l *loggedBus) Receive(ctx context.Context) (Frame, error) {
	f, err := l.inner.Receive(ctx)
	if l.opts&LogRead == 0 {
		return f, err
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return f, err
		}
		l.logger.Log(ctx, slog.LevelError, "canutil receive error", "error", err)
	} else if l.wants(f) {
		l.logger.Log(ctx, l.level, "canutil receive", frameAttrs(f)...)
	}
	return f, err
}

// Close forwards to the inner Bus without logging.
func (l *loggedBus) Close() error {
	return l.inner.Close()
}
