package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "text-embedding-004", cfg.Gemini.EmbeddingModel)
	assert.Equal(t, 60*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 0.5, cfg.Intervention.ConfidenceThreshold)
	assert.Equal(t, "medical_knowledge_base.json", cfg.Knowledge.Path)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medsage.yaml")
	yaml := `
server:
  port: "9090"
gemini:
  model: gemini-2.0-pro
  timeout: 30s
intervention:
  confidence_threshold: 0.7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-pro", cfg.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 0.7, cfg.Intervention.ConfidenceThreshold)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.7, cfg.Gemini.Temperature)
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medsage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))

	t.Setenv("MEDSAGE_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MEDSAGE_CONFIDENCE_THRESHOLD", "0.35")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, 0.35, cfg.Intervention.ConfidenceThreshold)
}

func TestLoadFrom_IgnoresMalformedEnvNumbers(t *testing.T) {
	t.Setenv("MEDSAGE_CONFIDENCE_THRESHOLD", "not-a-number")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Intervention.ConfidenceThreshold)
}

func TestLoadFrom_ValidatesRanges(t *testing.T) {
	t.Setenv("MEDSAGE_CONFIDENCE_THRESHOLD", "1.5")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence_threshold")
}

func TestLoadFrom_RejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medsage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{invalid yaml"), 0o644))

	_, err := LoadFrom(path)
	require.Error(t, err)
}
