package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWithWriter_Levels(t *testing.T) {
	tests := []struct {
		environment string
		want        zerolog.Level
	}{
		{"development", zerolog.DebugLevel},
		{"production", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := SetupWithWriter(tt.environment, &buf)
		if logger.GetLevel() != tt.want {
			t.Errorf("SetupWithWriter(%q) level = %v, want %v", tt.environment, logger.GetLevel(), tt.want)
		}
		if log.Logger.GetLevel() != tt.want {
			t.Errorf("global logger level = %v, want %v", log.Logger.GetLevel(), tt.want)
		}
	}
}

func TestSetupWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("production", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("route", "/api/overlay/state").Msg("request")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %q", buf.String())
	}
	if entry["message"] != "request" || entry["route"] != "/api/overlay/state" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no timestamp")
	}
}
