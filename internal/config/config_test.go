package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
[search]
url = "http://search.internal:9200"
alert_index = "alerts-*"

[llm]
provider = "ollama"
model = "llama3"

[server]
addr = "0.0.0.0:7777"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.URL != "http://search.internal:9200" {
		t.Errorf("search url = %q", cfg.Search.URL)
	}
	if cfg.Search.AlertIndex != "alerts-*" {
		t.Errorf("alert index = %q", cfg.Search.AlertIndex)
	}
	if cfg.Server.Addr != "0.0.0.0:7777" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, ``)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.URL != "http://localhost:9200" {
		t.Errorf("default search url = %q", cfg.Search.URL)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3" {
		t.Errorf("default llm = %+v", cfg.LLM)
	}
	if cfg.Server.Addr != "127.0.0.1:8888" {
		t.Errorf("default addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "openai"
model = "gpt-4o-mini"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error: openai without api_key")
	}
}

func TestLoad_UnsupportedProvider(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "bedrock"
model = "m"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestLoad_ProviderNormalized(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "Ollama"
model = "llama3"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, want lowercased", cfg.LLM.Provider)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HUNTER_SEARCH_URL", "http://other:9200")
	t.Setenv("HUNTER_API_KEY", "secret")
	t.Setenv("HUNTER_PROVIDER", "openai")

	path := writeConfig(t, `
[llm]
provider = "ollama"
model = "gpt-4o-mini"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.URL != "http://other:9200" {
		t.Errorf("search url = %q, env override not applied", cfg.Search.URL)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "secret" {
		t.Errorf("llm = %+v, env overrides not applied", cfg.LLM)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Search.URL == "" || cfg.LLM.Provider == "" || cfg.Server.Addr == "" {
		t.Errorf("Default() incomplete: %+v", cfg)
	}
}
