package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestInitLoggersTwice(t *testing.T) {
	if err := InitLoggers("info"); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := InitLoggers("debug"); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if err := InitLoggers("warn"); err != nil {
		t.Fatalf("third init failed: %v", err)
	}
	logger.GetLogger("store").Debugf("dropped at level warn")
}

func TestCreateLoggerLevel(t *testing.T) {
	l, ok := CreateLogger("store").(*electricLogger)
	if !ok {
		t.Fatalf("expected an electric logger")
	}
	if l.level != logger.INFO {
		t.Errorf("expected default level INFO, got %v", l.level)
	}
	l.SetLevel(logger.DEBUG)
	if l.level != logger.DEBUG {
		t.Errorf("expected level DEBUG, got %v", l.level)
	}
}

func TestInitLoggersInvalidLevel(t *testing.T) {
	if err := InitLoggers("verbose"); err == nil {
		t.Errorf("expected an error for an invalid level")
	}
}
