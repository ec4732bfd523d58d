package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Env: "development"},
		JWT:    JWTConfig{AccessSecret: defaultJWTSecret},
		Levy: LevyConfig{
			FeePerRoomCents:   5000,
			DiscountThreshold: 10,
			DiscountPercent:   10,
			ValidityDays:      365,
		},
		Gateway: GatewayConfig{Provider: "stub"},
		Mail:    MailConfig{Provider: "log"},
		Jobs:    JobsConfig{Enabled: true, JobTimeout: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"negative fee", func(c *Config) { c.Levy.FeePerRoomCents = -1 }, "must not be negative"},
		{"discount over 100", func(c *Config) { c.Levy.DiscountPercent = 120 }, "outside 0..100"},
		{"zero validity", func(c *Config) { c.Levy.ValidityDays = 0 }, "validity days"},
		{"unknown gateway", func(c *Config) { c.Gateway.Provider = "cash" }, "unknown gateway provider"},
		{"paystack without key", func(c *Config) { c.Gateway.Provider = "paystack" }, "GATEWAY_SECRET_KEY"},
		{"sendgrid without key", func(c *Config) { c.Mail.Provider = "sendgrid" }, "MAIL_SENDGRID_API_KEY"},
		{"jobs without timeout", func(c *Config) { c.Jobs.JobTimeout = 0 }, "jobs timeout"},
		{"stub in production", func(c *Config) {
			c.Server.Env = "production"
			c.JWT.AccessSecret = "s3cret"
		}, "stub gateway"},
		{"default secret in production", func(c *Config) {
			c.Server.Env = "production"
			c.Gateway = GatewayConfig{Provider: "midtrans", SecretKey: "sk"}
		}, "JWT_ACCESS_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LEVY_FEE_PER_ROOM_CENTS", "7500")
	t.Setenv("LEVY_CURRENCY", "NGN")
	t.Setenv("GATEWAY_PROVIDER", "Stub")
	t.Setenv("JOBS_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.EqualValues(t, 7500, cfg.Levy.FeePerRoomCents)
	assert.Equal(t, "NGN", cfg.Levy.Currency)
	assert.Equal(t, "stub", cfg.Gateway.Provider)
	assert.Equal(t, 90*time.Second, cfg.Jobs.JobTimeout)
	assert.Equal(t, 10, cfg.Levy.DiscountThreshold)
}
