package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/speechflow/internal/speech"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, speech.VendorNone, cfg.Vendor)
	assert.False(t, cfg.HasCredential())
	assert.Equal(t, "OPENAI_API_KEY or GOOGLE_CLOUD_API_KEY", cfg.MissingCredential())
	assert.Equal(t, 60*time.Second, cfg.UpstreamTimeout)
	assert.EqualValues(t, 8, cfg.UpstreamMaxConcurrency)
	assert.EqualValues(t, 5, cfg.BreakerMaxFailures)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.EqualValues(t, 50<<20, cfg.MaxBodyBytes)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 48000, cfg.GoogleSampleRate)
}

func TestFromEnv_VendorSelection(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want speech.VendorKind
	}{
		{"openai key", map[string]string{"OPENAI_API_KEY": "sk"}, speech.VendorOpenAI},
		{"google key", map[string]string{"GOOGLE_CLOUD_API_KEY": "g"}, speech.VendorGoogle},
		{"both keys prefer openai", map[string]string{"OPENAI_API_KEY": "sk", "GOOGLE_CLOUD_API_KEY": "g"}, speech.VendorOpenAI},
		{"explicit google", map[string]string{"OPENAI_API_KEY": "sk", "GOOGLE_CLOUD_API_KEY": "g", "SPEECH_VENDOR": "Google"}, speech.VendorGoogle},
		{"explicit without key", map[string]string{"SPEECH_VENDOR": "openai"}, speech.VendorOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.env["AUTH_REQUIRED"] = "false"
			cfg, err := FromEnv(env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Vendor)
		})
	}

	cfg, err := FromEnv(env(map[string]string{"AUTH_REQUIRED": "false", "SPEECH_VENDOR": "openai"}))
	require.NoError(t, err)
	assert.False(t, cfg.HasCredential())
	assert.Equal(t, "OPENAI_API_KEY", cfg.MissingCredential())
}

func TestFromEnv_Errors(t *testing.T) {
	_, err := FromEnv(env(map[string]string{}))
	assert.ErrorContains(t, err, "JWT_SECRET is required")

	_, err = FromEnv(env(map[string]string{
		"AUTH_REQUIRED":            "nope",
		"UPSTREAM_TIMEOUT":         "soon",
		"RATE_LIMIT_PER_MINUTE":    "-1",
		"SPEECH_VENDOR":            "azure",
		"UPSTREAM_MAX_CONCURRENCY": "0",
		"JWT_SECRET":               "x",
	}))
	require.Error(t, err)
	for _, want := range []string{"AUTH_REQUIRED", "UPSTREAM_TIMEOUT", "RATE_LIMIT_PER_MINUTE", "SPEECH_VENDOR", "UPSTREAM_MAX_CONCURRENCY"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"PORT":                   "8081",
		"AUTH_REQUIRED":          "false",
		"UPSTREAM_TIMEOUT":       "15s",
		"BREAKER_COOLDOWN":       "1m",
		"DEFAULT_VOICE":          "nova",
		"TELEGRAM_ALERT_CHAT_ID": "-1001234",
	}))
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.False(t, cfg.AuthRequired)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, time.Minute, cfg.BreakerCooldown)
	assert.Equal(t, "nova", cfg.DefaultVoice)
	assert.EqualValues(t, -1001234, cfg.TelegramAlertChatID)
}
