package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestSlogServiceLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogServiceLogger(base).With(LogFields{"queue": "orders"})
	logger.Info("message posted", LogFields{"count": 2})

	out := buf.String()
	if !strings.Contains(out, "message posted") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "queue=orders") {
		t.Fatalf("expected With fields in output, got %q", out)
	}
	if !strings.Contains(out, "count=2") {
		t.Fatalf("expected call fields in output, got %q", out)
	}
}

func TestSlogServiceLoggerError(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	NewSlogServiceLogger(base).Error("request failed", errors.New("boom"), nil)

	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected error to be logged, got %q", buf.String())
	}
}

func TestNewSlogServiceLoggerNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil logger")
		}
	}()
	NewSlogServiceLogger(nil)
}

type captureAdapter struct {
	entries []string
	fields  []watermill.LogFields
}

func (c *captureAdapter) Error(msg string, err error, fields watermill.LogFields) {
	c.entries = append(c.entries, "error:"+msg)
	c.fields = append(c.fields, fields)
}
func (c *captureAdapter) Info(msg string, fields watermill.LogFields) {
	c.entries = append(c.entries, "info:"+msg)
	c.fields = append(c.fields, fields)
}
func (c *captureAdapter) Debug(msg string, fields watermill.LogFields) {
	c.entries = append(c.entries, "debug:"+msg)
	c.fields = append(c.fields, fields)
}
func (c *captureAdapter) Trace(msg string, fields watermill.LogFields) {
	c.entries = append(c.entries, "trace:"+msg)
	c.fields = append(c.fields, fields)
}
func (c *captureAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter { return c }

func TestWatermillRoundTrip(t *testing.T) {
	capture := &captureAdapter{}
	logger := NewWatermillServiceLogger(capture)

	// ServiceLogger -> watermill adapter -> capture.
	adapter := NewWatermillAdapter(logger)
	adapter.Info("polling", watermill.LogFields{"queue": "q1"})

	if len(capture.entries) != 1 || capture.entries[0] != "info:polling" {
		t.Fatalf("expected one info entry, got %#v", capture.entries)
	}
	if capture.fields[0]["queue"] != "q1" {
		t.Fatalf("expected fields to pass through, got %#v", capture.fields[0])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NopLogger()
	logger.Debug("dropped", nil)
	logger.Info("dropped", LogFields{"k": "v"})
	logger.Error("dropped", errors.New("x"), nil)
	logger.Trace("dropped", nil)
}
