package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Store
	StoreDriver    string `json:"store_driver"` // "postgres" | "memory"
	DatabaseURL    string `json:"database_url"`
	DBSchema       string `json:"db_schema"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	SeedFile       string `json:"seed_file"` // JSON tables loaded by the memory store

	// Consulta pipeline
	RequestTimeout           int     `json:"request_timeout"` // seconds, per provider call
	RetryMaxAttempts         int     `json:"retry_max_attempts"`
	RetryDelayMs             int     `json:"retry_delay_ms"`
	RelationMatchThreshold   float64 `json:"relation_match_threshold"`
	CorrectionMatchThreshold float64 `json:"correction_match_threshold"`

	// Security
	EnableDataMasking  bool     `json:"enable_data_masking"`
	EnablePIIDetection bool     `json:"enable_pii_detection"`
	SensitiveColumns   []string `json:"sensitive_columns"`
	PIIKeywords        []string `json:"pii_keywords"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`

	// AI / LLM, tried in this order
	OpenAIAPIKey          string `json:"openai_api_key"`
	OpenAIBaseURL         string `json:"openai_base_url"`
	OpenAIModel           string `json:"openai_model"`
	OpenAIClassifierModel string `json:"openai_classifier_model"`
	OllamaEnabled         bool   `json:"ollama_enabled"`
	OllamaURL             string `json:"ollama_url"`
	OllamaModel           string `json:"ollama_model"`
	OllamaTimeout         int    `json:"ollama_timeout"` // seconds
	AnthropicAPIKey       string `json:"anthropic_api_key"`
	AnthropicBaseURL      string `json:"anthropic_base_url"` // override for a custom proxy
	AnthropicModel        string `json:"anthropic_model"`

	// Notifications
	SMTPHosts       []string `json:"smtp_hosts"`
	SMTPPort        int      `json:"smtp_port"`
	SMTPUser        string   `json:"smtp_user"`
	SMTPPass        string   `json:"smtp_pass"`
	WhatsAppEnabled bool     `json:"whatsapp_enabled"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		APIPrefix:                DefaultAPIPrefix,
		LogLevel:                 DefaultLogLevel,
		CORSOrigins:              DefaultCORSOrigins,
		APIKeyHeader:             "X-API-Key",
		EnableAuth:               true,
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		StoreDriver:              DefaultStoreDriver,
		DBSchema:                 DefaultDBSchema,
		DBMaxOpenConns:           DefaultDBMaxOpenConns,
		DBMaxIdleConns:           DefaultDBMaxIdleConns,
		RequestTimeout:           DefaultRequestTimeout,
		RetryMaxAttempts:         DefaultRetryAttempts,
		RetryDelayMs:             DefaultRetryDelayMs,
		RelationMatchThreshold:   DefaultRelationMatch,
		CorrectionMatchThreshold: DefaultCorrectionMatch,
		EnableDataMasking:        true,
		EnablePIIDetection:       true,
		SensitiveColumns:         DefaultSensitiveColumns,
		PIIKeywords:              DefaultPIIKeywords,
		EnableAuditLogging:       true,
		OpenAIModel:              DefaultOpenAIModel,
		OpenAIClassifierModel:    DefaultOpenAIClassifierModel,
		OllamaEnabled:            true,
		OllamaURL:                DefaultOllamaURL,
		OllamaModel:              DefaultOllamaModel,
		OllamaTimeout:            DefaultOllamaTimeout,
		AnthropicModel:           DefaultAnthropicModel,
		SMTPHosts:                DefaultSMTPHosts,
		SMTPPort:                 DefaultSMTPPort,
	}

	// Load from JSON config file if specified
	if path := getEnv("LRSYSTEM_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// RetryDelay is RetryDelayMs as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("LRSYSTEM_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("LRSYSTEM_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("LRSYSTEM_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("LRSYSTEM_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("LRSYSTEM_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("STORE_DRIVER", ""); v != "" {
		cfg.StoreDriver = v
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("SEED_FILE", ""); v != "" {
		cfg.SeedFile = v
	}
	if v := getEnv("RETRY_MAX_ATTEMPTS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryMaxAttempts = n
		}
	}
	if v := getEnv("RETRY_DELAY_MS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryDelayMs = n
		}
	}
	if v := getEnv("OPENAI_API_KEY", ""); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := getEnv("OPENAI_BASE_URL", ""); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := getEnv("OLLAMA_ENABLED", ""); v != "" {
		cfg.OllamaEnabled = v == "true" || v == "1"
	}
	if v := getEnv("OLLAMA_URL", ""); v != "" {
		cfg.OllamaURL = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("BREVO_USER", ""); v != "" {
		cfg.SMTPUser = v
	}
	if v := getEnv("BREVO_PASS", ""); v != "" {
		cfg.SMTPPass = v
	}
	if v := getEnv("WHATSAPP_ENABLED", ""); v != "" {
		cfg.WhatsAppEnabled = v == "true" || v == "1"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
