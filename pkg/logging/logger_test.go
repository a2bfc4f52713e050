package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/niels/pageserve/pkg/config"
)

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true, &buf)

	levels := []struct {
		log   func(string)
		msg   string
		level string
	}{
		{func(m string) { logger.Debug().Msg(m) }, "debug message", "debug"},
		{func(m string) { logger.Info().Msg(m) }, "info message", "info"},
		{func(m string) { logger.Warn().Msg(m) }, "warn message", "warn"},
		{func(m string) { logger.Error().Msg(m) }, "error message", "error"},
	}

	for _, l := range levels {
		l.log(l.msg)
		output := buf.String()
		buf.Reset()

		if !strings.Contains(output, l.msg) {
			t.Errorf("Log should contain %q, got: %s", l.msg, output)
		}
		if !strings.Contains(output, `"level":"`+l.level+`"`) {
			t.Errorf("Log should have %s level, got: %s", l.level, output)
		}
	}
}

func TestDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, &buf)

	logger.Debug().Msg("debug message")
	if strings.Contains(buf.String(), "debug message") {
		t.Errorf("Debug log should not be visible when debug is disabled, got: %s", buf.String())
	}
	buf.Reset()

	logger.Info().Msg("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("Info log should be visible when debug is disabled, got: %s", buf.String())
	}
}

func TestContextualLogging(t *testing.T) {
	var buf bytes.Buffer
	globalLogger = NewLogger(true, &buf)

	componentLogger := WithComponent("router")
	componentLogger.Info().Str("path", "/index.html").Msg("contextual log message")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v", err)
	}

	if component, ok := logEntry["component"].(string); !ok || component != "router" {
		t.Errorf("Expected component field to be 'router', got: %v", logEntry["component"])
	}
	if path, ok := logEntry["path"].(string); !ok || path != "/index.html" {
		t.Errorf("Expected path field to be '/index.html', got: %v", logEntry["path"])
	}
	if timestamp, ok := logEntry["time"].(string); ok {
		if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
			t.Errorf("Timestamp should be in RFC3339 format, got: %s", timestamp)
		}
	} else {
		t.Errorf("Log entry should contain a timestamp field")
	}
}

func TestHelperFunctions(t *testing.T) {
	var buf bytes.Buffer
	globalLogger = NewLogger(true, &buf)

	helpers := map[string]func(string){
		"debug helper message": Debug,
		"info helper message":  Info,
		"warn helper message":  Warn,
		"error helper message": Error,
	}
	for msg, fn := range helpers {
		fn(msg)
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("Helper should log %q, got: %s", msg, buf.String())
		}
		buf.Reset()
	}

	InfoWith("serving", map[string]interface{}{
		"addr":    ":3000",
		"retries": 0,
		"elapsed": 2 * time.Second,
		"cause":   errors.New("boom"),
	})

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v", err)
	}
	if logEntry["addr"] != ":3000" {
		t.Errorf("Expected addr field ':3000', got: %v", logEntry["addr"])
	}
	if logEntry["cause"] != "boom" {
		t.Errorf("Expected cause field 'boom', got: %v", logEntry["cause"])
	}
	if _, ok := logEntry["elapsed"]; !ok {
		t.Errorf("Expected elapsed field, got: %v", logEntry)
	}
}

func TestInitGlobalLoggerToFile(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Logging.LogToFile = true
	cfg.Logging.LogFilePath = filepath.Join(t.TempDir(), "pageserve.log")

	InitGlobalLogger(false, cfg)
	Info("written to file")

	writer := NewRotatingWriter(cfg.Logging.LogFilePath, cfg.Logging)
	if writer.Filename != cfg.Logging.LogFilePath {
		t.Errorf("Expected rotating writer for %s, got %s", cfg.Logging.LogFilePath, writer.Filename)
	}
	if writer.MaxSize != 10 || writer.MaxBackups != 3 || writer.MaxAge != 28 {
		t.Errorf("Unexpected retention settings: %+v", writer)
	}
}
