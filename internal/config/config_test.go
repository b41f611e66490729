package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.AIBackend)
	assert.Positive(t, cfg.AITimeout)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("AI_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("AI_TIMEOUT", "15s")
	t.Setenv("PHOTO_BACKEND", "bolt")
	t.Setenv("PERSONA_FILE", "/etc/personas.yaml")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "claude", cfg.AIBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 15*time.Second, cfg.AITimeout)
	assert.Equal(t, "bolt", cfg.PhotoBackend)
	assert.Equal(t, "/etc/personas.yaml", cfg.PersonaFile)
}

func TestLoadInvalidTimeoutFallsBack(t *testing.T) {
	for _, v := range []string{"soon", "-5s", "0"} {
		t.Setenv("AI_TIMEOUT", v)
		assert.Equal(t, 60*time.Second, Load().AITimeout, v)
	}
}
