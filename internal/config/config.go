package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Secrets come from the process environment only and never from the yaml
// file. Names follow the ones the hosted frontend already uses.
type Secrets struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY"`

	StripeSecretKey      string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET"`
	StripePremiumPriceID string `env:"STRIPE_PREMIUM_PRICE_ID"`
	StripeFamilyPriceID  string `env:"STRIPE_FAMILY_PRICE_ID"`

	SupabaseURL            string `env:"NEXT_PUBLIC_SUPABASE_URL"`
	SupabaseAnonKey        string `env:"NEXT_PUBLIC_SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`

	BaseURL     string `env:"NEXT_PUBLIC_BASE_URL"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Region      string `env:"VERCEL_REGION"`
	Port        string `env:"PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type ServerConfig struct {
	Port              string          `yaml:"port"`
	LogLevel          string          `yaml:"log_level"`
	ReadHeaderTimeout time.Duration   `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout   time.Duration   `yaml:"shutdown_timeout"`
	AllowedOrigins    []string        `yaml:"allowed_origins"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

type OpenAIConfig struct {
	BaseURL           string        `yaml:"base_url"` // empty means the public API
	ChatModel         string        `yaml:"chat_model"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

type ElevenLabsConfig struct {
	BaseURL           string        `yaml:"base_url"`
	ModelID           string        `yaml:"model_id"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

type StripeConfig struct {
	BackendURL          string `yaml:"backend_url"` // empty means the public API
	VoiceCreditPriceNOK int64  `yaml:"voice_credit_price_nok"`
	MaxVoiceCredits     int64  `yaml:"max_voice_credits"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Stripe     StripeConfig     `yaml:"stripe"`

	Secrets Secrets `yaml:"-"`
}

const (
	_portDefault              = "3000"
	_logLevelDefault          = "info"
	_readHeaderTimeoutDefault = 10 * time.Second
	_writeTimeoutDefault      = 2 * time.Minute
	_shutdownTimeoutDefault   = 15 * time.Second
	_rpsDefault               = 5
	_burstDefault             = 20

	_openAIChatModelDefault = "gpt-4"
	_openAIRPMDefault       = 60
	_vendorTimeoutDefault   = time.Minute

	_elevenLabsBaseURLDefault = "https://api.elevenlabs.io"
	_elevenLabsModelDefault   = "eleven_multilingual_v2"
	_elevenLabsRPMDefault     = 30

	_voiceCreditPriceDefault = 29
	_maxVoiceCreditsDefault  = 100

	_baseURLDefault = "http://localhost:3000"
)

func (c *Config) Setup() {
	c.Server.Port = cmp.Or(c.Secrets.Port, c.Server.Port, _portDefault)
	c.Server.LogLevel = cmp.Or(c.Server.LogLevel, _logLevelDefault)
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = _readHeaderTimeoutDefault
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = _writeTimeoutDefault
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = _shutdownTimeoutDefault
	}
	if c.Server.RateLimit.RequestsPerSecond <= 0 {
		c.Server.RateLimit.RequestsPerSecond = _rpsDefault
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = _burstDefault
	}

	c.OpenAI.ChatModel = cmp.Or(c.OpenAI.ChatModel, _openAIChatModelDefault)
	if c.OpenAI.RequestsPerMinute <= 0 {
		c.OpenAI.RequestsPerMinute = _openAIRPMDefault
	}
	if c.OpenAI.Timeout <= 0 {
		c.OpenAI.Timeout = _vendorTimeoutDefault
	}

	c.ElevenLabs.BaseURL = cmp.Or(c.ElevenLabs.BaseURL, _elevenLabsBaseURLDefault)
	c.ElevenLabs.ModelID = cmp.Or(c.ElevenLabs.ModelID, _elevenLabsModelDefault)
	if c.ElevenLabs.RequestsPerMinute <= 0 {
		c.ElevenLabs.RequestsPerMinute = _elevenLabsRPMDefault
	}
	if c.ElevenLabs.Timeout <= 0 {
		c.ElevenLabs.Timeout = _vendorTimeoutDefault
	}

	if c.Stripe.VoiceCreditPriceNOK <= 0 {
		c.Stripe.VoiceCreditPriceNOK = _voiceCreditPriceDefault
	}
	if c.Stripe.MaxVoiceCredits <= 0 {
		c.Stripe.MaxVoiceCredits = _maxVoiceCreditsDefault
	}

	c.Secrets.BaseURL = cmp.Or(c.Secrets.BaseURL, _baseURLDefault)
}

// Validate reports every problem at once instead of stopping at the first.
func (c *Config) Validate() error {
	var result *multierror.Error

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: invalid server port %q", err, c.Server.Port))
	}
	for name, raw := range map[string]string{
		"base url":            c.Secrets.BaseURL,
		"elevenlabs base url": c.ElevenLabs.BaseURL,
		"openai base url":     c.OpenAI.BaseURL,
		"stripe backend url":  c.Stripe.BackendURL,
		"supabase url":        c.Secrets.SupabaseURL,
	} {
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: invalid %s", err, name))
		}
	}
	if c.Secrets.StripeSecretKey != "" && c.Secrets.StripeWebhookSecret == "" {
		result = multierror.Append(result, errors.New("stripe webhook secret is required when stripe is configured"))
	}

	return result.ErrorOrNil()
}

// Load reads the yaml settings (a missing file means defaults), overlays the
// environment secrets and applies defaults.
func Load(filename string) (Config, error) {
	var cfg Config

	if filename != "" {
		input, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("%w: can't read file", err)
		default:
			if err := yaml.Unmarshal(input, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: can't unmarshal config", err)
			}
		}
	}

	if err := env.Parse(&cfg.Secrets); err != nil {
		return cfg, fmt.Errorf("%w: can't parse env", err)
	}

	cfg.Setup()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
