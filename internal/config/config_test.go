package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-dashboard/internal/dataset"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_MODE", "DATA_DIR", "VARIANT", "SOURCES_FILE",
		"DEFAULT_THRESHOLD", "HISTOGRAM_BINS", "REDIS_ADDR", "CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
	for _, key := range []string{"FEATURES_CSV", "CNN_CSV", "REGRESSION_CSV", "DECISIONS_CSV"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// keep godotenv away from any .env in the package directory
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, VariantFull, cfg.Variant)
	assert.Equal(t, 0.25, cfg.DefaultThreshold)
	assert.Equal(t, 50, cfg.HistogramBins)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, dataset.Sources{
		Features:   "features_sample.csv",
		CNN:        "cnn_predictions.csv",
		Regression: "traffic_predictions.csv",
		Decisions:  "decisions.csv",
	}, cfg.Sources)
}

func TestLoad_VariantAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VARIANT", "basic")
	t.Setenv("DATA_DIR", "/data")
	t.Setenv("DECISIONS_CSV", "/elsewhere/decisions.csv")
	t.Setenv("DEFAULT_THRESHOLD", "0.4")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data", "features.csv"), cfg.Sources.Features)
	assert.Equal(t, filepath.Join("/data", "cnn_predictions.csv"), cfg.Sources.CNN)
	assert.Empty(t, cfg.Sources.Regression)
	assert.Equal(t, "/elsewhere/decisions.csv", cfg.Sources.Decisions)
	assert.Equal(t, 0.4, cfg.DefaultThreshold)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoad_EmptyVariableDisablesSource(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGRESSION_CSV", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Sources.Regression)
	assert.NotEmpty(t, cfg.Sources.CNN)
}

func TestLoad_RejectsBadThresholdAndVariant(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_THRESHOLD", "0.9")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("VARIANT", "deluxe")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_BadNumbersFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTOGRAM_BINS", "many")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.HistogramBins)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadSourcesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_dir: data
sources:
  features: features.csv
  cnn: /abs/cnn.csv
  decisions: decisions.csv
`), 0o644))

	src, err := LoadSourcesFile(path)
	require.NoError(t, err)

	assert.Equal(t, dataset.Sources{
		Features:  filepath.Join(dir, "data", "features.csv"),
		CNN:       "/abs/cnn.csv",
		Decisions: filepath.Join(dir, "data", "decisions.csv"),
	}, src)
}

func TestLoad_SourcesFileReplacesPreset(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  features: f.csv\n"), 0o644))
	t.Setenv("SOURCES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dataset.Sources{Features: filepath.Join(dir, "f.csv")}, cfg.Sources)
}

func TestLoadSourcesFile_Errors(t *testing.T) {
	_, err := LoadSourcesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [unclosed"), 0o644))
	_, err = LoadSourcesFile(path)
	assert.Error(t, err)
}
