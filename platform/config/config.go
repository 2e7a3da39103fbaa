// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// RedisConfig provides settings for the Redis snapshot store.
type RedisConfig interface {
	GetRedisURL() string
}

// LLMConfig provides settings for the language-model backends.
type LLMConfig interface {
	// GetLLMMode is one of "cloud", "local", "auto".
	GetLLMMode() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetLocalLLMURL() string
	GetLocalLLMModel() string
	GetGenerateTimeout() time.Duration
	GetExtractTimeout() time.Duration
}

// SpeechConfig provides ASR/TTS settings.
type SpeechConfig interface {
	GetWhisperModelPath() string
	GetSpeechLanguage() string
	GetTTSBaseURL() string
	IsASREnabled() bool
	IsTTSEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketAudio() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSalesInboxAddress() string
}

// SchedulerConfig provides settings for background job processing.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetConversationIdleTTL() time.Duration
	GetExpiryScanInterval() time.Duration
}

// Config is the concrete application configuration.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string
	RedisURL    string

	CORSAllowAll bool
	CORSOrigins  []string

	LLMMode         string
	GeminiAPIKey    string
	GeminiModel     string
	LocalLLMURL     string
	LocalLLMModel   string
	GenerateTimeout time.Duration
	ExtractTimeout  time.Duration

	WhisperModelPath string
	SpeechLanguage   string
	TTSBaseURL       string

	// PhoneRegion is the ISO 3166-1 region used to parse phone numbers
	// spoken without a country prefix.
	PhoneRegion string

	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	MinioBucketAudio string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	SalesInbox       string

	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	ConversationIdleTTL time.Duration
	ExpiryScanInterval  time.Duration

	// TuningFile optionally points at a YAML file overriding conversation
	// tuning defaults (thresholds, ceilings, farewell phrases, templates).
	TuningFile string
	Tuning     Tuning
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	mode := strings.ToLower(getEnv("LLM_MODE", "auto"))
	switch mode {
	case "cloud", "local", "auto":
	default:
		return nil, fmt.Errorf("LLM_MODE must be one of cloud, local, auto (got %q)", mode)
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		CORSAllowAll: strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),

		LLMMode:         mode,
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LocalLLMURL:     getEnv("LOCAL_LLM_URL", "http://localhost:8081/v1"),
		LocalLLMModel:   getEnv("LOCAL_LLM_MODEL", "mistral-7b-instruct"),
		GenerateTimeout: mustDuration(getEnv("LLM_GENERATE_TIMEOUT", "30s")),
		ExtractTimeout:  mustDuration(getEnv("LLM_EXTRACT_TIMEOUT", "10s")),

		WhisperModelPath: getEnv("WHISPER_MODEL_PATH", ""),
		SpeechLanguage:   getEnv("SPEECH_LANGUAGE", "en"),
		TTSBaseURL:       getEnv("TTS_BASE_URL", ""),
		PhoneRegion:      strings.ToUpper(getEnv("PHONE_REGION", "US")),

		MinIOEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:      strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketAudio: getEnv("MINIO_BUCKET_AUDIO", "conversation-audio"),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Lead Agent"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		SalesInbox:       getEnv("SALES_INBOX_ADDRESS", ""),

		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ConversationIdleTTL: mustDuration(getEnv("CONVERSATION_IDLE_TTL", "30m")),
		ExpiryScanInterval:  mustDuration(getEnv("EXPIRY_SCAN_INTERVAL", "5m")),

		TuningFile: getEnv("CONVERSATION_TUNING_FILE", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.LLMMode != "local" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when LLM_MODE is %q", cfg.LLMMode)
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "" || cfg.SalesInbox == "") {
		return nil, fmt.Errorf("SMTP_HOST, EMAIL_FROM_ADDRESS and SALES_INBOX_ADDRESS are required when EMAIL_ENABLED is true")
	}

	tuning, err := LoadTuning(cfg.TuningFile)
	if err != nil {
		return nil, fmt.Errorf("load conversation tuning: %w", err)
	}
	cfg.Tuning = tuning

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) GetHTTPAddr() string     { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool   { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRedisURL() string     { return c.RedisURL }

func (c *Config) GetLLMMode() string                { return c.LLMMode }
func (c *Config) GetGeminiAPIKey() string           { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string            { return c.GeminiModel }
func (c *Config) GetLocalLLMURL() string            { return c.LocalLLMURL }
func (c *Config) GetLocalLLMModel() string          { return c.LocalLLMModel }
func (c *Config) GetGenerateTimeout() time.Duration { return c.GenerateTimeout }
func (c *Config) GetExtractTimeout() time.Duration  { return c.ExtractTimeout }

func (c *Config) GetWhisperModelPath() string { return c.WhisperModelPath }
func (c *Config) GetSpeechLanguage() string   { return c.SpeechLanguage }
func (c *Config) GetTTSBaseURL() string       { return c.TTSBaseURL }
func (c *Config) IsASREnabled() bool          { return c.WhisperModelPath != "" }
func (c *Config) IsTTSEnabled() bool          { return c.TTSBaseURL != "" }
func (c *Config) GetPhoneRegion() string      { return c.PhoneRegion }

func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketAudio() string { return c.MinioBucketAudio }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func (c *Config) GetEmailEnabled() bool         { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string           { return c.SMTPHost }
func (c *Config) GetSMTPPort() int              { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string       { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string       { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string      { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string   { return c.EmailFromAddress }
func (c *Config) GetSalesInboxAddress() string  { return c.SalesInbox }

func (c *Config) GetRedisTLSInsecure() bool               { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string               { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                { return c.AsynqConcurrency }
func (c *Config) GetConversationIdleTTL() time.Duration   { return c.ConversationIdleTTL }
func (c *Config) GetExpiryScanInterval() time.Duration    { return c.ExpiryScanInterval }
