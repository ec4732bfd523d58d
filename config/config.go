package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Levy     LevyConfig
	Gateway  GatewayConfig
	Mail     MailConfig
	Jobs     JobsConfig
	Admin    AdminSeedConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    int
	RateWindow   time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// LevyConfig holds the per-room listing fee rules. Amounts are in minor units.
type LevyConfig struct {
	FeePerRoomCents   int64
	DiscountThreshold int
	DiscountPercent   int64
	ValidityDays      int
	Currency          string
	ReminderWindow    time.Duration
}

// GatewayConfig selects the payment provider used for levy checkout and verification.
type GatewayConfig struct {
	Provider      string // stub | paystack | midtrans
	SecretKey     string
	BaseURL       string
	CallbackURL   string
	// WebhookSecret signs gateway notifications. Paystack signs with the secret key.
	WebhookSecret string
	Production    bool
	Timeout       time.Duration
}

type MailConfig struct {
	Provider       string // log | sendgrid
	SendgridAPIKey string
	FromEmail      string
	FromName       string
	SandboxMode    bool
	MaxAttempts    int
}

type JobsConfig struct {
	Enabled           bool
	ReconcileSpec     string
	DeliveryRetrySpec string
	ExpiryReminder    string
	JobTimeout        time.Duration
}

type AdminSeedConfig struct {
	Email    string
	Password string
}

const defaultJWTSecret = "change-me-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("read_timeout", 10*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("rate_limit", 100)
	v.SetDefault("rate_window", 60*time.Second)

	v.SetDefault("database_dsn", "landlords:landlords@tcp(localhost:3306)/landlords?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database_max_idle_conns", 10)
	v.SetDefault("database_max_open_conns", 100)
	v.SetDefault("database_conn_max_lifetime", time.Hour)

	v.SetDefault("jwt_access_secret", defaultJWTSecret)
	v.SetDefault("jwt_refresh_secret", "change-me-refresh")
	v.SetDefault("jwt_access_expiry", 15*time.Minute)
	v.SetDefault("jwt_refresh_expiry", 168*time.Hour)
	v.SetDefault("jwt_issuer", "landlords")

	v.SetDefault("levy_fee_per_room_cents", 5000)
	v.SetDefault("levy_discount_threshold", 10)
	v.SetDefault("levy_discount_percent", 10)
	v.SetDefault("levy_validity_days", 365)
	v.SetDefault("levy_currency", "GHS")
	v.SetDefault("levy_reminder_window", 7*24*time.Hour)

	v.SetDefault("gateway_provider", "stub")
	v.SetDefault("gateway_secret_key", "")
	v.SetDefault("gateway_base_url", "https://api.paystack.co")
	v.SetDefault("gateway_callback_url", "")
	v.SetDefault("gateway_webhook_secret", "")
	v.SetDefault("gateway_production", false)
	v.SetDefault("gateway_timeout", 30*time.Second)

	v.SetDefault("mail_provider", "log")
	v.SetDefault("mail_sendgrid_api_key", "")
	v.SetDefault("mail_from_email", "no-reply@landlordsandtenant.com")
	v.SetDefault("mail_from_name", "Landlords&Tenant")
	v.SetDefault("mail_sandbox_mode", false)
	v.SetDefault("mail_max_attempts", 5)

	v.SetDefault("jobs_enabled", true)
	v.SetDefault("jobs_reconcile_spec", "*/10 * * * *")
	v.SetDefault("jobs_delivery_retry_spec", "*/5 * * * *")
	v.SetDefault("jobs_expiry_reminder_spec", "5 0 * * *")
	v.SetDefault("jobs_timeout", 2*time.Minute)

	v.SetDefault("admin_email", "admin@landlordsandtenant.com")
	v.SetDefault("admin_password", "")
}

// Load reads an optional .env file and then the process environment.
// Keys are upper-cased, e.g. LEVY_FEE_PER_ROOM_CENTS.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("port"),
			Env:          v.GetString("env"),
			ReadTimeout:  v.GetDuration("read_timeout"),
			WriteTimeout: v.GetDuration("write_timeout"),
			RateLimit:    v.GetInt("rate_limit"),
			RateWindow:   v.GetDuration("rate_window"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database_dsn"),
			MaxIdleConns:    v.GetInt("database_max_idle_conns"),
			MaxOpenConns:    v.GetInt("database_max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database_conn_max_lifetime"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("jwt_access_secret"),
			RefreshSecret: v.GetString("jwt_refresh_secret"),
			AccessExpiry:  v.GetDuration("jwt_access_expiry"),
			RefreshExpiry: v.GetDuration("jwt_refresh_expiry"),
			Issuer:        v.GetString("jwt_issuer"),
		},
		Levy: LevyConfig{
			FeePerRoomCents:   v.GetInt64("levy_fee_per_room_cents"),
			DiscountThreshold: v.GetInt("levy_discount_threshold"),
			DiscountPercent:   v.GetInt64("levy_discount_percent"),
			ValidityDays:      v.GetInt("levy_validity_days"),
			Currency:          v.GetString("levy_currency"),
			ReminderWindow:    v.GetDuration("levy_reminder_window"),
		},
		Gateway: GatewayConfig{
			Provider:      strings.ToLower(v.GetString("gateway_provider")),
			SecretKey:     v.GetString("gateway_secret_key"),
			BaseURL:       v.GetString("gateway_base_url"),
			CallbackURL:   v.GetString("gateway_callback_url"),
			WebhookSecret: v.GetString("gateway_webhook_secret"),
			Production:    v.GetBool("gateway_production"),
			Timeout:       v.GetDuration("gateway_timeout"),
		},
		Mail: MailConfig{
			Provider:       strings.ToLower(v.GetString("mail_provider")),
			SendgridAPIKey: v.GetString("mail_sendgrid_api_key"),
			FromEmail:      v.GetString("mail_from_email"),
			FromName:       v.GetString("mail_from_name"),
			SandboxMode:    v.GetBool("mail_sandbox_mode"),
			MaxAttempts:    v.GetInt("mail_max_attempts"),
		},
		Jobs: JobsConfig{
			Enabled:           v.GetBool("jobs_enabled"),
			ReconcileSpec:     v.GetString("jobs_reconcile_spec"),
			DeliveryRetrySpec: v.GetString("jobs_delivery_retry_spec"),
			ExpiryReminder:    v.GetString("jobs_expiry_reminder_spec"),
			JobTimeout:        v.GetDuration("jobs_timeout"),
		},
		Admin: AdminSeedConfig{
			Email:    v.GetString("admin_email"),
			Password: v.GetString("admin_password"),
		},
	}
	if cfg.Gateway.WebhookSecret == "" && cfg.Gateway.Provider == "paystack" {
		cfg.Gateway.WebhookSecret = cfg.Gateway.SecretKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Levy.FeePerRoomCents < 0 {
		errs = append(errs, errors.New("levy fee per room must not be negative"))
	}
	if c.Levy.DiscountPercent < 0 || c.Levy.DiscountPercent > 100 {
		errs = append(errs, fmt.Errorf("levy discount percent %d outside 0..100", c.Levy.DiscountPercent))
	}
	if c.Levy.ValidityDays <= 0 {
		errs = append(errs, errors.New("levy validity days must be positive"))
	}
	switch c.Gateway.Provider {
	case "stub":
		if c.IsProduction() {
			errs = append(errs, errors.New("stub gateway is not allowed in production"))
		}
	case "paystack", "midtrans":
		if c.Gateway.SecretKey == "" {
			errs = append(errs, fmt.Errorf("gateway %s requires GATEWAY_SECRET_KEY", c.Gateway.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown gateway provider %q", c.Gateway.Provider))
	}
	switch c.Mail.Provider {
	case "log":
	case "sendgrid":
		if c.Mail.SendgridAPIKey == "" {
			errs = append(errs, errors.New("sendgrid mail provider requires MAIL_SENDGRID_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail provider %q", c.Mail.Provider))
	}
	if c.Jobs.Enabled && c.Jobs.JobTimeout <= 0 {
		errs = append(errs, errors.New("jobs timeout must be positive"))
	}
	if c.IsProduction() && c.JWT.AccessSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}
