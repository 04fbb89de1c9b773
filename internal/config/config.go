package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config aggregates every setting of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Session  SessionConfig
	Events   EventsConfig
	Log      LogConfig
	Referral ReferralConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Server: server, AI: ai}
	if err := env.Parse(&cfg.Session); err != nil {
		return nil, fmt.Errorf("parse session config: %w", err)
	}
	if err := env.Parse(&cfg.Events); err != nil {
		return nil, fmt.Errorf("parse events config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parse log config: %w", err)
	}
	if err := env.Parse(&cfg.Referral); err != nil {
		return nil, fmt.Errorf("parse referral config: %w", err)
	}

	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are used as-is.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AIConfig describes the inference provider.
type AIConfig struct {
	Provider string `env:"AI_PROVIDER" envDefault:"ark"`

	APIKey    string `env:"ARK_API_KEY"`
	AccessKey string `env:"ARK_ACCESS_KEY"`
	SecretKey string `env:"ARK_SECRET_KEY"`
	Model     string `env:"ARK_MODEL"`
	BaseURL   string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string `env:"ARK_REGION" envDefault:"cn-beijing"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	Timeout             time.Duration `env:"AI_TIMEOUT" envDefault:"45s"`
	HistoryLimit        int           `env:"AI_HISTORY_LIMIT" envDefault:"10"`
	CrisisScreenEnabled bool          `env:"CRISIS_SCREEN_ENABLED" envDefault:"true"`

	// Optional sampling overrides, parsed by loadAIConfig.
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// NewChatModel creates the Ark chat model used by the eino chain.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Model == "" || (c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "")) {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	chatModel, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

func loadAIConfig() (AIConfig, error) {
	cfg := AIConfig{}
	if err := env.Parse(&cfg); err != nil {
		return AIConfig{}, fmt.Errorf("parse ai config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderArk
	}

	switch cfg.Provider {
	case ProviderArk, ProviderGemini, ProviderOpenAI:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", cfg.Provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}

	cfg.Temperature = temperature
	cfg.TopP = topP
	cfg.MaxTokens = maxTokens
	return cfg, nil
}

// SessionConfig controls the lifetime of in-memory chat sessions.
type SessionConfig struct {
	OnboardingDelay     time.Duration `env:"SESSION_ONBOARDING_DELAY" envDefault:"1s"`
	IdleTTL             time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SweepSchedule       string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 5m"`
	SurfaceGatewayError bool          `env:"LUMI_SURFACE_GATEWAY_ERRORS" envDefault:"false"`
}

func (c SessionConfig) validate() error {
	if c.OnboardingDelay < 0 {
		return fmt.Errorf("invalid SESSION_ONBOARDING_DELAY value %q", c.OnboardingDelay)
	}
	if c.IdleTTL <= 0 {
		return fmt.Errorf("invalid SESSION_IDLE_TTL value %q", c.IdleTTL)
	}
	return nil
}

// EventsConfig selects the session event bus backend. An empty RedisAddr keeps
// events in process.
type EventsConfig struct {
	RedisAddr string `env:"EVENTS_REDIS_ADDR"`
	Buffer    int64  `env:"EVENTS_BUFFER" envDefault:"64"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// ReferralConfig points at an optional YAML referral directory.
type ReferralConfig struct {
	File string `env:"REFERRAL_FILE"`
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
