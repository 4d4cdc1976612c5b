package logger

import (
	"path/filepath"
	"testing"

	"tagmirror/pkg/config"
)

func TestNewWithInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "nonsense"})
	if err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestNewWithValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "fatal", "disabled", ""} {
		if _, err := New(&config.LoggingConfig{Level: level}); err != nil {
			t.Errorf("Expected level %q to be accepted, got %v", level, err)
		}
	}
}

func TestNewWithFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "tagmirror.log")
	log, err := New(&config.LoggingConfig{Level: "info", File: logFile})
	if err != nil {
		t.Fatalf("Expected file logger to be created, got %v", err)
	}
	log.Info("test entry")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "disabled"})
	if err != nil {
		t.Fatal(err)
	}

	base := log.WithField("a", 1)
	child := base.WithField("b", 2)

	baseImpl := base.(*zerologLogger)
	childImpl := child.(*zerologLogger)

	if len(baseImpl.fields) != 1 {
		t.Errorf("Expected parent to keep 1 field, got %d", len(baseImpl.fields))
	}
	if len(childImpl.fields) != 2 {
		t.Errorf("Expected child to have 2 fields, got %d", len(childImpl.fields))
	}
}

func TestDefaultLoggerSwap(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	nop := NewNopLogger()
	SetLogger(nop)
	if GetLogger() != nop {
		t.Error("Expected SetLogger to replace the default logger")
	}
}
