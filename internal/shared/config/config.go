package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"resume-analyzer/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	ServiceName      string
	CORSAllowOrigins []string
	MaxUploadBytes   int64
	ScratchDir       string
	AnalysisTimeout  time.Duration
	LLMProvider      string
	LLMModel         string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	PromptVersion    string
	Breaker          BreakerConfig
	TracingExporter  string
	OTLPEndpoint     string
}

// BreakerConfig configures the circuit breaker around LLM calls.
type BreakerConfig struct {
	Enabled      bool
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

var defaults = map[string]any{
	"PORT":                      "8000",
	"ENV":                       "dev",
	"SERVICE_NAME":              "resume-analyzer",
	"CORS_ALLOW_ORIGINS":        "*",
	"MAX_UPLOAD_BYTES":          10 << 20,
	"SCRATCH_DIR":               "",
	"ANALYSIS_TIMEOUT":          "120s",
	"LLM_PROVIDER":              "openai",
	"LLM_MODEL":                 "",
	"OPENAI_API_KEY":            "",
	"OPENAI_BASE_URL":           "",
	"GEMINI_API_KEY":            "",
	"PROMPT_VERSION":            "v1",
	"LLM_BREAKER_ENABLED":       true,
	"LLM_BREAKER_MAX_REQUESTS":  1,
	"LLM_BREAKER_INTERVAL":      "60s",
	"LLM_BREAKER_TIMEOUT":       "30s",
	"LLM_BREAKER_MIN_REQUESTS":  5,
	"LLM_BREAKER_FAILURE_RATIO": 0.6,
	"TRACING_EXPORTER":          "none",
	"OTLP_ENDPOINT":             "",
}

// Load reads configuration from .env files, an optional CONFIG_FILE and the environment.
// Environment variables win over the config file, which wins over defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			telemetry.Warn("config.file_unreadable", map[string]any{"path": path, "error": err})
		}
	}

	cfg := Config{
		Port:             v.GetString("PORT"),
		Env:              normalizeEnv(v.GetString("ENV")),
		ServiceName:      v.GetString("SERVICE_NAME"),
		CORSAllowOrigins: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		MaxUploadBytes:   v.GetInt64("MAX_UPLOAD_BYTES"),
		ScratchDir:       v.GetString("SCRATCH_DIR"),
		AnalysisTimeout:  v.GetDuration("ANALYSIS_TIMEOUT"),
		LLMProvider:      normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:         strings.TrimSpace(v.GetString("LLM_MODEL")),
		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:    v.GetString("OPENAI_BASE_URL"),
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		PromptVersion:    v.GetString("PROMPT_VERSION"),
		Breaker: BreakerConfig{
			Enabled:      v.GetBool("LLM_BREAKER_ENABLED"),
			MaxRequests:  v.GetUint32("LLM_BREAKER_MAX_REQUESTS"),
			Interval:     v.GetDuration("LLM_BREAKER_INTERVAL"),
			Timeout:      v.GetDuration("LLM_BREAKER_TIMEOUT"),
			MinRequests:  v.GetUint32("LLM_BREAKER_MIN_REQUESTS"),
			FailureRatio: v.GetFloat64("LLM_BREAKER_FAILURE_RATIO"),
		},
		TracingExporter: strings.ToLower(strings.TrimSpace(v.GetString("TRACING_EXPORTER"))),
		OTLPEndpoint:    v.GetString("OTLP_ENDPOINT"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 120 * time.Second
	}
	if len(cfg.CORSAllowOrigins) == 0 {
		cfg.CORSAllowOrigins = []string{"*"}
	}
	if cfg.Env == "production" && containsWildcard(cfg.CORSAllowOrigins) {
		telemetry.Warn("config.cors_wildcard", map[string]any{"env": cfg.Env})
	}
	return cfg
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	default:
		return "none"
	}
}
