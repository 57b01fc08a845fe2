package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "medsage.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "MEDSAGE_PORT")
	setString(&cfg.Server.CORSOrigin, "MEDSAGE_CORS_ORIGIN")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "MEDSAGE_MODEL")
	setString(&cfg.Gemini.EmbeddingModel, "MEDSAGE_EMBEDDING_MODEL")
	setFloat64(&cfg.Gemini.Temperature, "MEDSAGE_TEMPERATURE")
	setInt(&cfg.Gemini.MaxOutputTokens, "MEDSAGE_MAX_OUTPUT_TOKENS")
	setDuration(&cfg.Gemini.Timeout, "MEDSAGE_GEMINI_TIMEOUT")
	setFloat64(&cfg.Gemini.RequestsPerSecond, "MEDSAGE_RATE_RPS")
	setInt(&cfg.Gemini.Burst, "MEDSAGE_RATE_BURST")
	setString(&cfg.Knowledge.Path, "MEDSAGE_KB_PATH")
	setFloat64(&cfg.Intervention.ConfidenceThreshold, "MEDSAGE_CONFIDENCE_THRESHOLD")
	setString(&cfg.Auth.Domain, "MEDSAGE_AUTH_DOMAIN")
	setString(&cfg.Auth.Audience, "MEDSAGE_AUTH_AUDIENCE")
	setString(&cfg.Report.FontPath, "MEDSAGE_FONT_PATH")
	setString(&cfg.Logging.Level, "MEDSAGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "MEDSAGE_LOG_SERVICE")
}

// validate checks ranges and required fields.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Gemini.Model == "" {
		return errors.New("gemini.model is required")
	}
	if cfg.Gemini.MaxOutputTokens < 1 {
		return errors.New("gemini.max_output_tokens must be >= 1")
	}
	if cfg.Gemini.Timeout <= 0 {
		return errors.New("gemini.timeout must be positive")
	}
	if t := cfg.Intervention.ConfidenceThreshold; t < 0 || t > 1 {
		return errors.New("intervention.confidence_threshold must be in [0, 1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
