package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"}, // Invalid level
	}

	for _, test := range tests {
		if result := test.level.String(); result != test.expected {
			t.Errorf("Level.String() = %v, expected %v", result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"trace": TraceLevel, "DEBUG": DebugLevel, "": InfoLevel, "warning": WarnLevel, "error": ErrorLevel} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(\"loud\") should fail")
	}
}

func TestLoggerInitialization(t *testing.T) {
	config := Config{
		Level:     InfoLevel,
		Component: "test",
	}

	if err := Initialize(config); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if defaultLogger == nil {
		t.Fatal("Initialize() did not set defaultLogger")
	}

	if defaultLogger.config.Component != "test" {
		t.Errorf("Initialize() did not set config correctly, got component: %s", defaultLogger.config.Component)
	}
}

func TestLoggerConsoleFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, Component: "resolver", NoOp: true}, &buf)

	l.Log(InfoLevel, "test message", String("path", "materials/x.vmt"))

	output := buf.String()
	for _, want := range []string{"INF", "test message", "path=materials/x.vmt", "component=resolver", "noop=true"} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q: %s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("console output should not be colored: %q", output)
	}
}

func TestLoggerJSONFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, JSON: true, Component: "test"}, &buf)

	l.Log(InfoLevel, "test message", String("key", "value"), Int64("bytes", 42))

	output := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(output, "{") {
		t.Errorf("Log() with JSON config did not produce JSON output: %s", output)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("Log() produced invalid JSON: %v\nOutput: %s", err, output)
	}

	if parsed["message"] != "test message" {
		t.Errorf("Parsed JSON message = %v, expected 'test message'", parsed["message"])
	}
	if parsed["level"] != "info" {
		t.Errorf("Parsed JSON level = %v, expected 'info'", parsed["level"])
	}
	if parsed["key"] != "value" || parsed["bytes"] != float64(42) || parsed["component"] != "test" {
		t.Errorf("Parsed JSON fields = %v", parsed)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: WarnLevel}, &buf)

	// These should not appear in output
	l.Log(InfoLevel, "info message")
	l.Log(DebugLevel, "debug message")

	// These should appear
	l.Log(WarnLevel, "warn message")
	l.Log(ErrorLevel, "error message")

	output := buf.String()

	if strings.Contains(output, "info message") {
		t.Error("INFO level message should be filtered out")
	}
	if strings.Contains(output, "debug message") {
		t.Error("DEBUG level message should be filtered out")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("WARN level message should appear")
	}
	if !strings.Contains(output, "error message") {
		t.Error("ERROR level message should appear")
	}
}

func TestFieldConstructors(t *testing.T) {
	stringField := String("key", "value")
	if stringField.Key != "key" || stringField.Value != "value" {
		t.Errorf("String() = %+v, expected {Key: 'key', Value: 'value'}", stringField)
	}

	intField := Int("count", 42)
	if intField.Key != "count" || intField.Value != 42 {
		t.Errorf("Int() = %+v, expected {Key: 'count', Value: 42}", intField)
	}

	int64Field := Int64("bytes", 7)
	if int64Field.Value != int64(7) {
		t.Errorf("Int64() = %+v", int64Field)
	}

	boolField := Bool("enabled", true)
	if boolField.Key != "enabled" || boolField.Value != true {
		t.Errorf("Bool() = %+v, expected {Key: 'enabled', Value: true}", boolField)
	}
}

func TestErrField(t *testing.T) {
	errField := Err(errors.New("test error"))

	if errField.Key != "error" {
		t.Errorf("Err() key = %v, expected 'error'", errField.Key)
	}
	if errField.Value != "test error" {
		t.Errorf("Err() value = %v, expected 'test error'", errField.Value)
	}
	if Err(nil).Value != nil {
		t.Error("Err(nil) should carry a nil value")
	}
}

func TestConvenienceFunctions(t *testing.T) {
	if err := Initialize(Config{Level: InfoLevel, Component: "test"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("test info message")
	Debug("test debug message")
	Trace("test trace message")
	Warn("test warn message")
	Error("test error message")

	output := buf.String()
	if !strings.Contains(output, "test info message") || !strings.Contains(output, "test warn message") {
		t.Errorf("convenience functions did not produce expected output: %s", output)
	}
	if strings.Contains(output, "test debug message") || strings.Contains(output, "test trace message") {
		t.Errorf("debug/trace should be filtered at info level: %s", output)
	}
}

func TestFallbackLogging(t *testing.T) {
	originalLogger := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = originalLogger }()

	// Uses the stderr fallback; must not panic
	Info("fallback test message")
	Warn("dropped without a logger")
}
