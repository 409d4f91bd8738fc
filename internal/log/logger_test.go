package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerCarriesComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Level: slog.LevelDebug}).WithComponent(ComponentFees)

	logger.Warn("fee derivation failed", FieldOriginID, int64(7))

	line := buf.String()
	if n := strings.Count(line, `"component"`); n != 1 {
		t.Fatalf("component fields = %d in %s", n, line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "fee derivation failed" || rec[FieldOriginID] != float64(7) || rec[FieldComponent] != ComponentFees {
		t.Errorf("record = %v", rec)
	}
	if logger.Component() != ComponentFees {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: slog.LevelWarn})
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation(OpInsert).WithIntent("derive_fee").WithTransaction(3).WithError(errors.New("boom"))
	if f[FieldOperation] != OpInsert || f[FieldIntent] != "derive_fee" || f[FieldTransactionID] != int64(3) || f[FieldError] != "boom" {
		t.Fatalf("fields = %v", f)
	}
	if len(f.ToSlice()) != 8 {
		t.Fatalf("ToSlice len = %d, want 8", len(f.ToSlice()))
	}
	if _, ok := NewFields().WithTransaction(0)[FieldTransactionID]; ok {
		t.Fatal("zero transaction id should not set a field")
	}
	if NewFields().WithError(nil)[FieldError] != nil {
		t.Fatal("nil error should not set a field")
	}
}
