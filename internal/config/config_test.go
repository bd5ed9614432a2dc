package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.Scorer.KeywordWeight)
	assert.Equal(t, 0.3, cfg.Scorer.ContextWeight)
	assert.Equal(t, 0.3, cfg.Scorer.QualityWeight)

	assert.Equal(t, 0.6, cfg.Verify.VisualThreshold)
	assert.Equal(t, 0.4, cfg.Verify.LexicalFusionWeight)
	assert.Equal(t, 0.6, cfg.Verify.VisualFusionWeight)
	assert.Equal(t, 2, cfg.Verify.MaxPerSource)
	assert.Equal(t, 4, cfg.Verify.Workers)

	assert.Equal(t, 5, cfg.Localizer.WindowSegments)
	assert.Equal(t, 5.0, cfg.Localizer.MinDurationSecs)
	assert.Equal(t, 15.0, cfg.Localizer.MaxDurationSecs)

	assert.Equal(t, 1.5, cfg.Lexical.BM25K1)
	assert.Equal(t, 0.75, cfg.Lexical.BM25B)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BROLL_VERIFY_MAX_PER_SOURCE", "3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Verify.MaxPerSource)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
