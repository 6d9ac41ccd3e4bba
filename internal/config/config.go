package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	// ExposeHistory registers GET /api/health-assistant/history/:user_id.
	// The route does no authentication; enable it only behind a proxy that
	// authenticates callers and checks they own the user ID.
	ExposeHistory bool `mapstructure:"expose_history"`
}

// LLMConfig selects the chat completion provider. groq and openai share the
// OpenAI wire protocol; ark and qwen go through their eino-ext clients.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type AgentConfig struct {
	SystemPrompt       string `mapstructure:"system_prompt"`
	MaxHistoryMessages int    `mapstructure:"max_history_messages"`
	MaxHistoryTokens   int    `mapstructure:"max_history_tokens"`
	TokenizerEncoding  string `mapstructure:"tokenizer_encoding"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Backend           string `mapstructure:"backend"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	Burst             int    `mapstructure:"burst"`
}

type StorageConfig struct {
	Type         string        `mapstructure:"type"`
	DataDir      string        `mapstructure:"data_dir"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	FilePath        string        `mapstructure:"file_path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

var defaults = map[string]any{
	"server.port":             8080,
	"server.read_timeout":     "30s",
	"server.write_timeout":    "120s",
	"server.max_header_bytes": 1 << 20,
	"server.expose_history":   false,

	"llm.provider":    "groq",
	"llm.api_key":     "",
	"llm.base_url":    "",
	"llm.model":       "",
	"llm.temperature": 0.7,
	"llm.max_tokens":  2048,
	"llm.timeout":     "60s",
	"llm.max_retries": 2,
	"llm.retry_delay": "1s",

	"agent.system_prompt":        "",
	"agent.max_history_messages": 20,
	"agent.max_history_tokens":   0,
	"agent.tokenizer_encoding":   "cl100k_base",

	"cors.allowed_origins":   []string{"*"},
	"cors.allowed_methods":   []string{"GET", "POST", "OPTIONS"},
	"cors.allowed_headers":   []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
	"cors.exposed_headers":   []string{"X-Request-ID"},
	"cors.allow_credentials": false,
	"cors.max_age":           43200,

	"log.level":  "info",
	"log.format": "text",

	"rate_limit.enabled":             false,
	"rate_limit.backend":             "memory",
	"rate_limit.requests_per_minute": 30,
	"rate_limit.burst":               10,

	"storage.type":          "memory",
	"storage.data_dir":      "./data",
	"storage.write_timeout": "5s",

	"database.driver":            "postgres",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "",
	"database.dbname":            "health_assistant",
	"database.sslmode":           "disable",
	"database.file_path":         "./data/health_assistant.db",
	"database.max_idle_conns":    5,
	"database.max_open_conns":    20,
	"database.conn_max_lifetime": "30m",

	"redis.address":  "localhost:6379",
	"redis.password": "",
	"redis.db":       0,
	"redis.prefix":   "health-assistant",
}

// Load reads configPath (YAML) on top of the built-in defaults. A missing
// file is not an error; environment variables prefixed with ASSISTANT_
// override file values (ASSISTANT_LLM_API_KEY -> llm.api_key).
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyProviderDefaults(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type providerDefaults struct {
	apiKeyEnv string
	modelEnv  string
	baseURL   string
	model     string
}

// An empty baseURL leaves the client SDK's own endpoint in place. ark has no
// default model: its model is a per-account endpoint ID.
var providers = map[string]providerDefaults{
	"groq": {
		apiKeyEnv: "GROQ_API_KEY",
		modelEnv:  "GROQ_MODEL",
		baseURL:   "https://api.groq.com/openai/v1",
		model:     "llama-3.3-70b-versatile",
	},
	"openai": {
		apiKeyEnv: "OPENAI_API_KEY",
		modelEnv:  "OPENAI_MODEL",
		model:     "gpt-4o-mini",
	},
	"ark": {
		apiKeyEnv: "ARK_API_KEY",
		modelEnv:  "ARK_MODEL",
	},
	"qwen": {
		apiKeyEnv: "DASHSCOPE_API_KEY",
		modelEnv:  "DASHSCOPE_MODEL",
		baseURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
		model:     "qwen-plus",
	},
}

// applyProviderDefaults fills unset llm fields for the selected provider.
// Explicit config and ASSISTANT_ variables win over the provider's
// conventional variables, which win over built-in values.
func applyProviderDefaults(llm *LLMConfig) {
	d, ok := providers[llm.Provider]
	if !ok {
		return
	}
	if llm.APIKey == "" {
		llm.APIKey = os.Getenv(d.apiKeyEnv)
	}
	if llm.Model == "" {
		llm.Model = os.Getenv(d.modelEnv)
	}
	if llm.Model == "" {
		llm.Model = d.model
	}
	if llm.BaseURL == "" {
		llm.BaseURL = d.baseURL
	}
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "groq", "openai", "ark", "qwen":
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Agent.MaxHistoryMessages < 0 || c.Agent.MaxHistoryTokens < 0 {
		return errors.New("agent history limits must not be negative")
	}

	switch c.Storage.Type {
	case "memory", "disk", "database":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("unsupported rate limit backend: %q", c.RateLimit.Backend)
		}
		if c.RateLimit.RequestsPerMinute <= 0 {
			return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", c.RateLimit.RequestsPerMinute)
		}
	}
	return nil
}
