package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init("warn", "json", &buf); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Msg("hidden")
	log.Warn().Str("session_id", "s-1").Msg("shown")

	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if line["message"] != "shown" || line["session_id"] != "s-1" || line["level"] != "warn" {
		t.Errorf("unexpected line %v", line)
	}
}

func TestInitRejectsBadInput(t *testing.T) {
	if err := Init("loud", "json", nil); err == nil {
		t.Error("expected invalid level error")
	}
	if err := Init("info", "xml", nil); err == nil {
		t.Error("expected invalid format error")
	}
}
