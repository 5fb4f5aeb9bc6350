package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"TESSDATA_PREFIX", "IMAGE_PATH", "OUTPUT_DIR", "KTPOCR_CONCURRENCY"} {
		unsetEnv(t, key)
	}

	cfg, err := loadConfig("", filepath.Join(t.TempDir(), ".env"), false)
	require.NoError(t, err)

	assert.Equal(t, engineTesseract, cfg.Engine)
	assert.Equal(t, "ind", cfg.Language)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, []string{"JAKARTA TIMUR"}, cfg.Localities)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigYAML(t *testing.T) {
	for _, key := range []string{"TESSDATA_PREFIX", "IMAGE_PATH", "OUTPUT_DIR", "KTPOCR_CONCURRENCY"} {
		unsetEnv(t, key)
	}

	path := writeTemp(t, "config.yml", `
engine: gdocai
language: ind+eng
page_seg_mode: 6
concurrency: 4
save_processed: true
localities: ["JAKARTA SELATAN", "BEKASI"]
log_level: debug
gdocai:
  project_id: proj
  location: eu
  processor_id: abc
`)
	cfg, err := loadConfig(path, "", false)
	require.NoError(t, err)

	assert.Equal(t, engineGDocAI, cfg.Engine)
	assert.Equal(t, "ind+eng", cfg.Language)
	assert.Equal(t, 6, cfg.PageSegMode)
	assert.True(t, cfg.SaveProcessed)
	assert.Equal(t, []string{"JAKARTA SELATAN", "BEKASI"}, cfg.Localities)
	assert.Equal(t, "proj", cfg.GDocAI.ProjectID)
	assert.Equal(t, "abc", cfg.GDocAI.ProcessorID)
	require.NoError(t, cfg.Validate())

	sc := cfg.scanConfig()
	assert.Equal(t, 4, sc.Concurrency)
	assert.Equal(t, []string{"JAKARTA SELATAN", "BEKASI"}, sc.Extract.LocalityNoise)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/tmp/ktp")
	t.Setenv("TESSDATA_PREFIX", "/usr/share/tessdata")
	t.Setenv("KTPOCR_CONCURRENCY", "3")
	unsetEnv(t, "IMAGE_PATH")

	envFile := writeTemp(t, ".env", "IMAGE_PATH=cards/ktp.jpg\nOUTPUT_DIR=ignored\n")
	t.Cleanup(func() { os.Unsetenv("IMAGE_PATH") })

	cfg, err := loadConfig(writeTemp(t, "config.yml", "output_dir: from-yaml\n"), envFile, true)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ktp", cfg.OutputDir, "process environment wins over .env and YAML")
	assert.Equal(t, "cards/ktp.jpg", cfg.ImagePath)
	assert.Equal(t, "/usr/share/tessdata", cfg.TessdataPrefix)
	assert.Equal(t, 3, cfg.Concurrency)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"), "", false)
	assert.Error(t, err)

	_, err = loadConfig(writeTemp(t, "bad.yml", "engine: [unclosed"), "", false)
	assert.Error(t, err)

	_, err = loadConfig("", filepath.Join(t.TempDir(), "missing.env"), true)
	assert.Error(t, err)

	t.Setenv("KTPOCR_CONCURRENCY", "many")
	_, err = loadConfig("", "", false)
	assert.ErrorContains(t, err, "KTPOCR_CONCURRENCY")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown engine", func(c *Config) { c.Engine = "easyocr" }, "unknown engine"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"page seg mode", func(c *Config) { c.PageSegMode = 14 }, "page_seg_mode"},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = parseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = parseLevel("trace")
	assert.Error(t, err)
}
