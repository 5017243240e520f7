package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	testLogger.Debug("hidden")
	testLogger.Info("fit started", OperationKey, OperationFit, SamplesKey, 153)
	testLogger.Error("fit failed", "error", fmt.Errorf("boom"))

	if testLogger.ContainsMessage("hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Error("operation field not found")
	}
	if !testLogger.ContainsField(SamplesKey, 153.0) {
		t.Error("samples field not found")
	}
	if !testLogger.ContainsField("error", "boom") {
		t.Error("error should be logged by message")
	}
	if testLogger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should not be enabled")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)
	scoped := testLogger.With(ModelNameKey, "LinearRegression", ComponentKey, "linear")

	scoped.Info("scoped record", OperationKey, OperationPredict)

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	for key, want := range map[string]interface{}{
		ModelNameKey: "LinearRegression",
		ComponentKey: "linear",
		OperationKey: OperationPredict,
		"level":      "INFO",
	} {
		if entries[0][key] != want {
			t.Errorf("%s = %v, want %v", key, entries[0][key], want)
		}
	}
}

func TestTestLoggerConcurrent(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				testLogger.Info("predict", "goroutine_id", id, "message_id", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 80 {
		t.Errorf("Expected 80 entries, got %d", len(entries))
	}
}

func TestSetupLoggerTo(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	if err := SetupLoggerTo(&buf, "debug"); err != nil {
		t.Fatalf("SetupLoggerTo: %v", err)
	}

	GetLogger().Error("fit failed", ErrAttrKey, errors.New("singular"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["severity"] != "ERROR" {
		t.Errorf("severity = %v, want ERROR", entry["severity"])
	}
	if entry["message"] != "fit failed" {
		t.Errorf("message = %v", entry["message"])
	}
	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("expected stacktrace attribute for cockroachdb error")
	}
	if entry[ErrorCodeKey] != errors.KindInternal {
		t.Errorf("%s = %v, want %s", ErrorCodeKey, entry[ErrorCodeKey], errors.KindInternal)
	}

	buf.Reset()
	GetLogger().Warn("bad request", ErrAttrKey, errors.NewValidationError("test_size", "must be in (0, 1)", 2.0))
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[ErrorCodeKey] != errors.KindInvalidInput {
		t.Errorf("%s = %v, want %s", ErrorCodeKey, entry[ErrorCodeKey], errors.KindInvalidInput)
	}
}

func TestToLogLevel(t *testing.T) {
	if _, err := ToLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	if lvl, err := ToLogLevel("warn"); err != nil || lvl.String() != "WARN" {
		t.Errorf("ToLogLevel(warn) = %v, %v", lvl, err)
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	zl, err := NewZerolog(&buf, FormatJSON, "info")
	if err != nil {
		t.Fatalf("NewZerolog: %v", err)
	}
	logger := NewZerologLogger(zl).With(ComponentKey, "server")

	logger.Debug("hidden")
	logger.Info("prediction served", PredictionKey, 13495.25, PredsKey, 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered")
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, out)
	}
	if entry[ComponentKey] != "server" || entry[PredictionKey] != 13495.25 {
		t.Errorf("unexpected entry %v", entry)
	}
	if !logger.Enabled(context.Background(), LevelWarn) || logger.Enabled(context.Background(), LevelDebug) {
		t.Error("Enabled does not follow the configured level")
	}
}

func TestNewZerologRejectsUnknownLevel(t *testing.T) {
	if _, err := NewZerolog(&bytes.Buffer{}, FormatJSON, "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInstallWarnings(t *testing.T) {
	var buf bytes.Buffer
	zl, _ := NewZerolog(&buf, FormatJSON, "debug")
	InstallWarnings(zl)
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewRankDeficiencyWarning("LinearRegression.Fit", 2, 3, 1e-12))

	out := buf.String()
	if !strings.Contains(out, `"rank":2`) || !strings.Contains(out, "RankDeficiencyWarning") {
		t.Errorf("structured warning fields missing: %s", out)
	}
}
