package observability

import (
	"testing"

	"github.com/spec-kit/imei-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	app := config.AppConfig{Name: "imei-check-service", Env: "test", Version: "dev"}

	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(config.LoggerConfig{Level: "debug", Format: format}, app)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !logger.Core().Enabled(-1) {
			t.Fatalf("%s: debug level should be enabled", format)
		}
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger(config.LoggerConfig{Level: "loud"}, config.AppConfig{}); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
