package canutil

import (
	"context"
	"log/slog"
	"testing"
)

type recordSink struct {
	records []slog.Record
}

func (s *recordSink) Enabled(context.Context, slog.Level) bool { return true }
func (s *recordSink) Handle(_ context.Context, r slog.Record) error {
	s.records = append(s.records, r.Clone())
	return nil
}
func (s *recordSink) WithAttrs([]slog.Attr) slog.Handler { return s }
func (s *recordSink) WithGroup(string) slog.Handler      { return s }

func (s *recordSink) count(level slog.Level, msg string) int {
	n := 0
	for _, r := range s.records {
		if r.Level == level && r.Message == msg {
			n++
		}
	}
	return n
}

func TestLoggedBus_WriteAndReadLogging(t *testing.T) {
	ctx := context.Background()
	lb := NewLoopbackBus()
	defer lb.Close()

	sink := &recordSink{}
	logger := slog.New(sink)

	// Wrap both endpoints to verify read and write logging independently.
	sender := NewLoggedBus(lb.Open(), logger, slog.LevelInfo, LogWrite, nil)
	receiver := NewLoggedBus(lb.Open(), logger, slog.LevelInfo, LogRead, nil)
	defer sender.Close()
	defer receiver.Close()

	if err := sender.Send(ctx, MustFrame(0x123, []byte{1, 2, 3})); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := receiver.Receive(ctx); err != nil {
		t.Fatalf("receive: %v", err)
	}

	if sink.count(slog.LevelInfo, "canutil send") != 1 {
		t.Fatalf("expected one write log entry")
	}
	if sink.count(slog.LevelInfo, "canutil receive") != 1 {
		t.Fatalf("expected one read log entry")
	}
}

func TestLoggedBus_Filter(t *testing.T) {
	ctx := context.Background()
	lb := NewLoopbackBus()
	defer lb.Close()

	sink := &recordSink{}
	sender := NewLoggedBus(lb.Open(), slog.New(sink), slog.LevelDebug, LogAll, ByID(0x200))
	defer sender.Close()

	_ = sender.Send(ctx, MustFrame(0x100, nil))
	_ = sender.Send(ctx, MustFrame(0x200, nil))

	if n := sink.count(slog.LevelDebug, "canutil send"); n != 1 {
		t.Fatalf("expected only the filtered frame to be logged, got %d", n)
	}
}

func TestLoggedBus_ErrorLogging(t *testing.T) {
	lb := NewLoopbackBus()
	// Create and immediately close a receiver to force error on Receive
	rx := lb.Open()
	_ = rx.Close()

	sink := &recordSink{}
	wrapped := NewLoggedBus(rx, slog.New(sink), slog.LevelInfo, LogAll, nil)
	_, _ = wrapped.Receive(context.Background())
	_ = wrapped.Send(context.Background(), MustFrame(0x1, nil))

	if sink.count(slog.LevelError, "canutil receive error") != 1 {
		t.Fatalf("expected receive error log entry")
	}
	if sink.count(slog.LevelError, "canutil send error") != 1 {
		t.Fatalf("expected send error log entry")
	}
}

func TestLoggedBus_CanceledReceive(t *testing.T) {
	lb := NewLoopbackBus()
	defer lb.Close()

	sink := &recordSink{}
	wrapped := NewLoggedBus(lb.Open(), slog.New(sink), slog.LevelInfo, LogRead, nil)
	defer wrapped.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := wrapped.Receive(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("canceled receive should not be logged, got %d records", len(sink.records))
	}
}
