package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vovarama1992/speechflow/internal/speech"
)

type Config struct {
	Port string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	GoogleAPIKey     string
	GoogleTTSURL     string
	GoogleSampleRate int

	// Vendor is the resolved upstream; VendorNone means requests fail as unconfigured.
	Vendor speech.VendorKind

	AuthRequired bool
	JWTSecret    string
	JWTAudience  string

	UpstreamTimeout        time.Duration
	UpstreamMaxConcurrency int64
	BreakerMaxFailures     uint32
	BreakerCooldown        time.Duration

	RateLimitPerMinute int
	MaxBodyBytes       int64

	DefaultLanguage string
	DefaultVoice    string

	TelegramAlertToken  string
	TelegramAlertChatID int64
}

// Load reads the process environment once. A .env file, if present, is applied first.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup, so tests need not touch the process env.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Port:          p.str("PORT", "5000"),
		OpenAIAPIKey:  p.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL: p.str("OPENAI_BASE_URL", ""),
		GoogleAPIKey:  p.str("GOOGLE_CLOUD_API_KEY", ""),
		GoogleTTSURL:  p.str("GOOGLE_TTS_URL", ""),

		GoogleSampleRate: p.num("GOOGLE_SPEECH_SAMPLE_RATE", 48000),

		AuthRequired: p.flag("AUTH_REQUIRED", true),
		JWTSecret:    p.str("JWT_SECRET", ""),
		JWTAudience:  p.str("JWT_AUDIENCE", ""),

		UpstreamTimeout:        p.duration("UPSTREAM_TIMEOUT", 60*time.Second),
		UpstreamMaxConcurrency: int64(p.num("UPSTREAM_MAX_CONCURRENCY", 8)),
		BreakerMaxFailures:     uint32(p.num("BREAKER_MAX_FAILURES", 5)),
		BreakerCooldown:        p.duration("BREAKER_COOLDOWN", 30*time.Second),

		RateLimitPerMinute: p.num("RATE_LIMIT_PER_MINUTE", 60),
		MaxBodyBytes:       int64(p.num("MAX_BODY_BYTES", 50<<20)),

		DefaultLanguage: p.str("DEFAULT_LANGUAGE", "en"),
		DefaultVoice:    p.str("DEFAULT_VOICE", ""),

		TelegramAlertToken:  p.str("TELEGRAM_ALERT_TOKEN", ""),
		TelegramAlertChatID: p.chatID("TELEGRAM_ALERT_CHAT_ID"),
	}

	vendor, err := resolveVendor(p.str("SPEECH_VENDOR", ""), cfg)
	if err != nil {
		p.errs = append(p.errs, err)
	}
	cfg.Vendor = vendor

	if cfg.AuthRequired && cfg.JWTSecret == "" {
		p.errs = append(p.errs, errors.New("JWT_SECRET is required when AUTH_REQUIRED is true"))
	}
	if cfg.UpstreamMaxConcurrency < 1 {
		p.errs = append(p.errs, errors.New("UPSTREAM_MAX_CONCURRENCY must be at least 1"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MissingCredential names the variable an operator has to set for the chosen vendor.
func (c *Config) MissingCredential() string {
	switch c.Vendor {
	case speech.VendorOpenAI:
		return "OPENAI_API_KEY"
	case speech.VendorGoogle:
		return "GOOGLE_CLOUD_API_KEY"
	}
	return "OPENAI_API_KEY or GOOGLE_CLOUD_API_KEY"
}

// HasCredential reports whether the resolved vendor has its key.
func (c *Config) HasCredential() bool {
	switch c.Vendor {
	case speech.VendorOpenAI:
		return c.OpenAIAPIKey != ""
	case speech.VendorGoogle:
		return c.GoogleAPIKey != ""
	}
	return false
}

func resolveVendor(explicit string, cfg *Config) (speech.VendorKind, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "openai":
		return speech.VendorOpenAI, nil
	case "google":
		return speech.VendorGoogle, nil
	case "":
	default:
		return speech.VendorNone, fmt.Errorf("SPEECH_VENDOR: unknown vendor %q", explicit)
	}

	switch {
	case cfg.OpenAIAPIKey != "":
		return speech.VendorOpenAI, nil
	case cfg.GoogleAPIKey != "":
		return speech.VendorGoogle, nil
	}
	return speech.VendorNone, nil
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) num(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return n
}

// chatID allows negative values: Telegram group chats have them.
func (p *parser) chatID(key string) int64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid chat id %q", key, v))
		return 0
	}
	return n
}

func (p *parser) flag(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
