// Package config provides hierarchical configuration loading for MedSage.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the assessment service.
type Config struct {
	Server       Server       `yaml:"server"`
	Database     Database     `yaml:"database"`
	Gemini       Gemini       `yaml:"gemini"`
	Knowledge    Knowledge    `yaml:"knowledge"`
	Intervention Intervention `yaml:"intervention"`
	Auth         Auth         `yaml:"auth"`
	Report       Report       `yaml:"report"`
	Logging      Logging      `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Database holds PostgreSQL connection configuration. An empty URL switches
// the service to the in-memory store.
type Database struct {
	URL string `yaml:"url"`
}

// Gemini holds LLM client configuration.
type Gemini struct {
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	Temperature       float64       `yaml:"temperature"`
	MaxOutputTokens   int           `yaml:"max_output_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// Knowledge holds knowledge-base configuration.
type Knowledge struct {
	Path string `yaml:"path"`
}

// Intervention holds human-review gating configuration.
type Intervention struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Auth holds optional JWT verification configuration. Leaving Domain empty
// disables authentication.
type Auth struct {
	Domain   string `yaml:"domain"`
	Audience string `yaml:"audience"`
}

// Report holds PDF rendering configuration.
type Report struct {
	FontPath string `yaml:"font_path"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "*",
		},
		Gemini: Gemini{
			Model:             "gemini-2.5-flash",
			EmbeddingModel:    "text-embedding-004",
			Temperature:       0.7,
			MaxOutputTokens:   4096,
			Timeout:           60 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Knowledge: Knowledge{
			Path: "medical_knowledge_base.json",
		},
		Intervention: Intervention{
			ConfidenceThreshold: 0.5,
		},
		Logging: Logging{
			Level:   "info",
			Service: "medsage",
		},
	}
}
