package config

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, time.Second, cfg.Session.OnboardingDelay)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, "@every 5m", cfg.Session.SweepSchedule)
	assert.False(t, cfg.Session.SurfaceGatewayError)
	assert.True(t, cfg.AI.CrisisScreenEnabled)
	assert.Nil(t, cfg.AI.Temperature)
}

func TestLoadServerAddr(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	server, err := loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", server.Addr)

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	server, err = loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, server.AllowedOrigins)

	t.Setenv("PORT", "90 00")
	_, err = loadServerConfig()
	assert.Error(t, err)
}

func TestLoadAIConfigOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("AI_TEMPERATURE", "0.4")
	t.Setenv("AI_MAX_TOKENS", "512")

	cfg, err := loadAIConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.True(t, cfg.Enabled())
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.4, *cfg.Temperature, 1e-9)
	require.NotNil(t, cfg.MaxTokens)
	assert.Equal(t, 512, *cfg.MaxTokens)
}

func TestLoadAIConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "carrier-pigeon")
	_, err := loadAIConfig()
	assert.Error(t, err)
}

func TestLoadAIConfigRejectsBadFloat(t *testing.T) {
	t.Setenv("AI_PROVIDER", "ark")
	t.Setenv("AI_TOP_P", "high")
	_, err := loadAIConfig()
	assert.Error(t, err)
}

func TestArkEnabledNeedsModelAndCredentials(t *testing.T) {
	cfg := AIConfig{Provider: ProviderArk, APIKey: "k"}
	assert.False(t, cfg.Enabled())

	cfg.Model = "doubao"
	assert.True(t, cfg.Enabled())

	cfg = AIConfig{Provider: ProviderArk, Model: "doubao", AccessKey: "ak"}
	assert.False(t, cfg.Enabled())
	cfg.SecretKey = "sk"
	assert.True(t, cfg.Enabled())
}

func TestSessionConfigValidate(t *testing.T) {
	assert.Error(t, SessionConfig{OnboardingDelay: -time.Second, IdleTTL: time.Minute}.validate())
	assert.Error(t, SessionConfig{IdleTTL: 0}.validate())
	assert.NoError(t, SessionConfig{IdleTTL: time.Minute}.validate())
}

// The Ark model must satisfy the interface the gateway binds tools through.
var _ model.ChatModel = (*ark.ChatModel)(nil)

func TestNewChatModelRequiresCredentials(t *testing.T) {
	_, err := AIConfig{Provider: ProviderArk}.NewChatModel(context.Background())
	assert.Error(t, err)
}
