package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Rehan-24/fpl-digest/internal/config"
)

func TestLogHandlerHonorsFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, config.LoggingConfig{Level: "warn", Format: "json"}, false))

	logger.Info("hidden")
	logger.Warn("shown", "job", "review")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record emitted below warn level: %s", out)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", out, err)
	}
	if rec["msg"] != "shown" || rec["job"] != "review" {
		t.Errorf("record fields: %v", rec)
	}
}

func TestLogHandlerVerboseOverride(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, config.LoggingConfig{Level: "error", Format: "text"}, true))

	logger.Debug("trace detail")
	if !strings.Contains(buf.String(), "trace detail") {
		t.Error("verbose flag did not lower the level to debug")
	}
}
