// Package config loads service configuration from a YAML file or, when
// none is given, from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "10s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config holds all configuration for the prontuário service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Report  ReportConfig  `yaml:"report"`
	Audit   AuditConfig   `yaml:"audit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// APIConfig points at the clinic's records API.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	FilePath    string   `yaml:"file_path"`
	FallbackTTL Duration `yaml:"fallback_ttl"`
}

// ReportConfig holds the fixed document header lines.
type ReportConfig struct {
	ClinicName   string `yaml:"clinic_name"`
	Registration string `yaml:"registration"`
	Title        string `yaml:"title"`
}

// AuditConfig holds access-audit settings.
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled"`
	FilePath string `yaml:"file_path"`
}

// Load loads configuration from a YAML file. Environment variables in
// the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 3000),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
			Timeout: Duration(getEnvDuration("API_TIMEOUT", 30*time.Second)),
		},
		Session: SessionConfig{
			FilePath:    getEnv("SESSION_FILE", ".prontuario-session.json"),
			FallbackTTL: Duration(getEnvDuration("SESSION_FALLBACK_TTL", 8*time.Hour)),
		},
		Report: ReportConfig{
			ClinicName:   getEnv("REPORT_CLINIC_NAME", "Clínica Odontológica"),
			Registration: getEnv("REPORT_REGISTRATION", ""),
			Title:        getEnv("REPORT_TITLE", "Prontuário Odontológico"),
		},
		Audit: AuditConfig{
			Enabled:  getEnvBool("AUDIT_ENABLED", true),
			FilePath: getEnv("AUDIT_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
