package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultBaseURL = "https://ai-gateway.vercel.sh/v1"
	DefaultModel   = "xai/grok-3-beta"
)

// Config is the on-disk configuration. Files ending in .yaml or .yml are
// read and written as YAML, anything else as JSON.
type Config struct {
	DataDir            string `json:"data_dir" yaml:"data_dir"`
	LogLevel           string `json:"log_level" yaml:"log_level"`
	LogFormat          string `json:"log_format" yaml:"log_format"`
	MaxConcurrent      int    `json:"max_concurrent" yaml:"max_concurrent"`
	MaxDurationSeconds int    `json:"max_duration_seconds" yaml:"max_duration_seconds"`
	SystemPromptPath   string `json:"system_prompt_path" yaml:"system_prompt_path"`
	RateLimit          struct {
		PerMinute int `json:"per_minute" yaml:"per_minute"`
		Burst     int `json:"burst" yaml:"burst"`
	} `json:"rate_limit" yaml:"rate_limit"`
	HTTP struct {
		Listen string `json:"listen" yaml:"listen"`
	} `json:"http" yaml:"http"`
	Gateway struct {
		BaseURL      string  `json:"base_url" yaml:"base_url"`
		APIKey       string  `json:"api_key" yaml:"api_key"`
		DefaultModel string  `json:"default_model" yaml:"default_model"`
		MaxTokens    int     `json:"max_tokens" yaml:"max_tokens"`
		Temperature  float32 `json:"temperature" yaml:"temperature"`
	} `json:"gateway" yaml:"gateway"`
}

// MaxDuration is the ceiling on handling a single completion request.
// Zero disables it.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSeconds) * time.Second
}

// Load reads the config file at path, writing defaults when it does not
// exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile is Load without environment overrides. Use it when the result is
// written back to disk.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{
		DataDir:            filepath.Join(os.Getenv("HOME"), ".chatrelay"),
		MaxDurationSeconds: 60,
	}
	cfg.LogLevel = "info"
	cfg.LogFormat = "tint"
	cfg.HTTP.Listen = "127.0.0.1:8484"
	cfg.Gateway.BaseURL = DefaultBaseURL
	cfg.Gateway.DefaultModel = DefaultModel

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyEnv overrides file values from the environment.
func applyEnv(cfg *Config) {
	if apiKey := os.Getenv("AI_GATEWAY_API_KEY"); apiKey != "" {
		cfg.Gateway.APIKey = apiKey
	}
	if baseURL := os.Getenv("AI_GATEWAY_BASE_URL"); baseURL != "" {
		cfg.Gateway.BaseURL = baseURL
	}
	if listen := os.Getenv("CHATRELAY_LISTEN"); listen != "" {
		cfg.HTTP.Listen = listen
	}
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := marshal(path, cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
