package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"solea/internal/config"
	"solea/internal/logging"
	"solea/internal/services"
)

func TestNewFromConfigWritesRotatingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "solea.log")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("run started", logging.String(logging.FieldRunID, "abc"))

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "run started") {
		t.Fatalf("expected message in rotating log, got %q", content)
	}
}

func TestFileCopiesWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "solea.log")
	logger, err := logging.New(logging.Options{Writer: &buf, File: file})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("disk nearly full")

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(content) != buf.String() {
		t.Fatalf("expected identical copies, got %q and %q", content, buf.String())
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without source")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with source")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerPrefixesComponentAndSong(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithSongID(context.Background(), "song-1")
	ctx = services.WithChunkID(ctx, "3")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline"))
	logger.Info("chunk written", logging.String("path", "a b"))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline · song-1: chunk written") {
		t.Fatalf("expected subject prefix, got %q", line)
	}
	if !strings.Contains(line, "chunk_id=3") {
		t.Fatalf("expected chunk id field, got %q", line)
	}
	if !strings.Contains(line, `path="a b"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "song_id=") {
		t.Fatalf("expected subject fields lifted out of the pairs, got %q", line)
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("fetch").Info("progress", logging.Float64("percent", 50), logging.Int("attempt", 2))

	line := buf.String()
	if !strings.Contains(line, "fetch.percent=50") || !strings.Contains(line, "fetch.attempt=2") {
		t.Fatalf("expected dotted group keys, got %q", line)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-42")
	logging.WithContext(ctx, logger).Warn("download failed")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["msg"] != "download failed" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload[logging.FieldRunID] != "run-42" {
		t.Fatalf("expected run id, got %v", payload[logging.FieldRunID])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if _, ok := payload["src"]; ok {
		t.Fatal("expected no source at info level")
	}
}

func TestJSONLoggerSourceAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("decoding")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	src, _ := payload["src"].(string)
	if !strings.HasPrefix(src, "logger_test.go:") {
		t.Fatalf("expected short source location, got %v", payload["src"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "skipped", "group_skipped", logging.String(logging.FieldImpact, "none"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "group_skipped" {
		t.Fatalf("unexpected event type: %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldImpact] != "none" {
		t.Fatalf("expected caller impact preserved, got %v", payload[logging.FieldImpact])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
}
