package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "groq" || cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxTokens != 2048 {
		t.Errorf("sampling = %v / %d", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.LLM.APIKey != "gsk_test" {
		t.Errorf("api key fallback not applied: %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Timeout != 60*time.Second || cfg.Storage.WriteTimeout != 5*time.Second {
		t.Errorf("durations = %v / %v", cfg.LLM.Timeout, cfg.Storage.WriteTimeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %q", cfg.Storage.Type)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
  api_key: sk-file
  model: gpt-4o-mini
agent:
  max_history_messages: 6
storage:
  type: disk
  data_dir: /tmp/chats
`)
	t.Setenv("ASSISTANT_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "sk-file" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Agent.MaxHistoryMessages != 6 {
		t.Errorf("max history = %d", cfg.Agent.MaxHistoryMessages)
	}
	if cfg.Storage.Type != "disk" || cfg.Storage.DataDir != "/tmp/chats" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want env override 9090", cfg.Server.Port)
	}
}

func TestLoadGroqModelEnv(t *testing.T) {
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
}

func TestLoadProviderDefaults(t *testing.T) {
	tests := []struct {
		provider string
		env      map[string]string
		baseURL  string
		model    string
		apiKey   string
	}{
		{
			provider: "openai",
			env:      map[string]string{"OPENAI_API_KEY": "sk-test", "OPENAI_MODEL": "", "GROQ_MODEL": "llama-3.1-8b-instant"},
			baseURL:  "",
			model:    "gpt-4o-mini",
			apiKey:   "sk-test",
		},
		{
			provider: "qwen",
			env:      map[string]string{"DASHSCOPE_API_KEY": "dash-test", "DASHSCOPE_MODEL": "qwen-max"},
			baseURL:  "https://dashscope.aliyuncs.com/compatible-mode/v1",
			model:    "qwen-max",
			apiKey:   "dash-test",
		},
		{
			provider: "groq",
			env:      map[string]string{"OPENAI_API_KEY": "sk-test", "GROQ_API_KEY": "", "GROQ_MODEL": ""},
			baseURL:  "https://api.groq.com/openai/v1",
			model:    "llama-3.3-70b-versatile",
			apiKey:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Setenv("ASSISTANT_LLM_PROVIDER", tt.provider)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.LLM.BaseURL != tt.baseURL {
				t.Errorf("base url = %q, want %q", cfg.LLM.BaseURL, tt.baseURL)
			}
			if cfg.LLM.Model != tt.model {
				t.Errorf("model = %q, want %q", cfg.LLM.Model, tt.model)
			}
			if cfg.LLM.APIKey != tt.apiKey {
				t.Errorf("api key = %q, want %q", cfg.LLM.APIKey, tt.apiKey)
			}
		})
	}
}

func TestLoadExplicitLLMEndpointWins(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
  base_url: https://proxy.internal/v1
  model: gpt-4o
`)
	t.Setenv("OPENAI_MODEL", "gpt-3.5-turbo")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.BaseURL != "https://proxy.internal/v1" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestLoadArkRequiresModel(t *testing.T) {
	t.Setenv("ASSISTANT_LLM_PROVIDER", "ark")
	t.Setenv("ARK_MODEL", "")

	if _, err := Load(""); err == nil {
		t.Error("expected error for ark without a model endpoint")
	}
}

func TestLoadHistoryRouteOffByDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ExposeHistory {
		t.Error("server.expose_history defaults to true")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"provider":   "llm:\n  provider: cohere\n",
		"storage":    "storage:\n  type: s3\n",
		"max tokens": "llm:\n  max_tokens: 0\n",
		"rate limit": "rate_limit:\n  enabled: true\n  backend: etcd\n",
		"history":    "agent:\n  max_history_messages: -1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
