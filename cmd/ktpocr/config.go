package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ktpocr/pkg/gdocai"
	"github.com/gardar/ktpocr/pkg/ktp"
	"github.com/gardar/ktpocr/pkg/ocr"
	"github.com/gardar/ktpocr/pkg/scan"
)

const (
	engineTesseract = "tesseract"
	engineGDocAI    = "gdocai"
)

// Config is the merged configuration of the YAML file, the environment and
// the command line.
type Config struct {
	Engine         string        `yaml:"engine"`
	Language       string        `yaml:"language"`
	TessdataPrefix string        `yaml:"tessdata_prefix"`
	PageSegMode    int           `yaml:"page_seg_mode"`
	OutputDir      string        `yaml:"output_dir"`
	SaveProcessed  bool          `yaml:"save_processed"`
	Concurrency    int           `yaml:"concurrency"`
	Localities     []string      `yaml:"localities"`
	LogLevel       string        `yaml:"log_level"`
	ImagePath      string        `yaml:"image_path"`
	GDocAI         gdocai.Config `yaml:"gdocai"`
}

func defaultConfig() *Config {
	return &Config{
		Engine:      engineTesseract,
		Language:    ocr.DefaultLanguage,
		PageSegMode: 3,
		OutputDir:   "output",
		Concurrency: 1,
		Localities:  ktp.DefaultConfig().LocalityNoise,
		LogLevel:    "info",
	}
}

// loadConfig builds the configuration from defaults, the YAML file at path
// (optional), the dotenv file at envPath and finally the environment.
// A missing envPath is only an error when required is set.
func loadConfig(path, envPath string, required bool) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the process environment.
func (c *Config) applyEnv() error {
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		c.TessdataPrefix = v
	}
	if v := os.Getenv("IMAGE_PATH"); v != "" {
		c.ImagePath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("KTPOCR_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid KTPOCR_CONCURRENCY %q: %w", v, err)
		}
		c.Concurrency = n
	}
	return nil
}

// Validate checks the settings that do not depend on the input kind.
func (c *Config) Validate() error {
	switch c.Engine {
	case engineTesseract, engineGDocAI:
	default:
		return fmt.Errorf("unknown engine %q, want %s or %s", c.Engine, engineTesseract, engineGDocAI)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.PageSegMode < 0 || c.PageSegMode > 13 {
		return fmt.Errorf("page_seg_mode must be between 0 and 13, got %d", c.PageSegMode)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) scanConfig() scan.Config {
	return scan.Config{
		Extract:       ktp.Config{LocalityNoise: c.Localities},
		Language:      c.Language,
		SaveProcessed: c.SaveProcessed,
		OutputDir:     c.OutputDir,
		Concurrency:   c.Concurrency,
	}
}
