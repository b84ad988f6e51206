package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupDisabledIsTextLogger(t *testing.T) {
	var buf bytes.Buffer
	log, shutdown, err := Setup(context.Background(), Config{Writer: &buf, Level: slog.LevelWarn})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestSetupEnabledExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	log, shutdown, err := Setup(context.Background(), Config{Enabled: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	log.Info("hello telemetry")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "hello telemetry") {
		t.Fatalf("exported output does not contain the log record: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, err: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err {
			t.Fatalf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
