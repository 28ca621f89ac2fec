package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSlogLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.With(String("component", "preprocess")).Warn("stage degraded",
		Int("tile", 3),
		Float64("confidence", 61.5),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if rec["msg"] != "stage degraded" {
		t.Fatalf("msg = %v", rec["msg"])
	}
	if rec["component"] != "preprocess" {
		t.Fatalf("With() field missing: %v", rec)
	}
	if rec["tile"] != float64(3) || rec["confidence"] != 61.5 {
		t.Fatalf("fields missing: %v", rec)
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With(String("k", "v"))
	l.Debug("quiet")
	l.Info("quiet")
	l.Warn("quiet")
	l.Error("quiet", Error("err", nil))
}
