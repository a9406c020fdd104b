package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "gpt-4", cfg.OpenAI.ChatModel)
	assert.Equal(t, "https://api.elevenlabs.io", cfg.ElevenLabs.BaseURL)
	assert.Equal(t, "eleven_multilingual_v2", cfg.ElevenLabs.ModelID)
	assert.Equal(t, int64(29), cfg.Stripe.VoiceCreditPriceNOK)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "http://localhost:3000", cfg.Secrets.BaseURL)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8080"
  allowed_origins: ["https://livetsstemme.no"]
  rate_limit:
    requests_per_second: 2
    burst: 4
openai:
  chat_model: gpt-4o-mini
`), 0o600))

	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://livetsstemme.no"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 4, cfg.Server.RateLimit.Burst)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "sk-test", cfg.Secrets.OpenAIAPIKey)
}

func TestPortFromEnvWins(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Config{}
	cfg.Secrets.Port = "abc"
	cfg.Secrets.StripeSecretKey = "sk_test_123"
	cfg.Setup()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
	assert.Contains(t, err.Error(), "stripe webhook secret is required")
}

func TestLoadRejectsBrokenYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't unmarshal config")
}

func TestShippedConfigLoads(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := Load(filepath.Join("..", "..", "configs", "livets-stemme.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.ElevenLabs.Timeout)
	assert.Equal(t, int64(100), cfg.Stripe.MaxVoiceCredits)
	assert.Contains(t, cfg.Server.AllowedOrigins, "https://livetsstemme.no")
}
