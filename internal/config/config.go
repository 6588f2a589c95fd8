// Package config handles loading and validating the config.toml
// configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	Search SearchConfig `toml:"search"`
	LLM    LLMConfig    `toml:"llm"`
	Server ServerConfig `toml:"server"`
}

// SearchConfig points at the log store's search API.
type SearchConfig struct {
	URL        string `toml:"url"`
	AlertIndex string `toml:"alert_index"`
	Timeout    int    `toml:"timeout"` // HTTP timeout in seconds (0 = default)
}

// LLMConfig configures the model backend for log analysis.
type LLMConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
	Timeout  int    `toml:"timeout"` // HTTP timeout in seconds (0 = default)
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Load reads a config.toml file and returns a validated Config.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Search: SearchConfig{
			URL:        "http://localhost:9200",
			AlertIndex: "wazuh-alerts-*",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8888",
		},
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s\n  Create one with: cp config.example.toml config.toml", path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a validated Config without reading a file, for
// flag-driven one-shot commands.
func Default() *Config {
	cfg := &Config{
		Search: SearchConfig{
			URL:        "http://localhost:9200",
			AlertIndex: "wazuh-alerts-*",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8888",
		},
	}
	applyEnv(cfg)
	return cfg
}

// applyEnv overrides sensitive or deploy-varying values from the
// environment.
func applyEnv(cfg *Config) {
	if url := os.Getenv("HUNTER_SEARCH_URL"); url != "" {
		cfg.Search.URL = url
	}
	if key := os.Getenv("HUNTER_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if provider := os.Getenv("HUNTER_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
}

func (c *Config) validate() error {
	if c.Search.URL == "" {
		return fmt.Errorf("search.url is required")
	}
	if c.Search.AlertIndex == "" {
		c.Search.AlertIndex = "wazuh-alerts-*"
	}

	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	switch c.LLM.Provider {
	case "ollama", "openai":
		// valid
	case "":
		return fmt.Errorf("llm.provider is required (ollama, openai)")
	default:
		return fmt.Errorf("unsupported llm.provider: %q", c.LLM.Provider)
	}

	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8888"
	}

	return nil
}
