package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerFromCore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewLoggerFromCore(core)

	logger.Info("Workflow run started", "run_id", "r-1")
	logger.Debug("dropped")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "Workflow run started" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[0].ContextMap()["run_id"] != "r-1" {
		t.Errorf("expected run_id field, got %v", entries[0].ContextMap())
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	logger, flush, err := NewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("debug enabled")
	_ = flush()
}
