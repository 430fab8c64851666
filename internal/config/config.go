package config

import (
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Webhook  WebhookConfig  `yaml:"webhook" mapstructure:"webhook"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`
	Queue    QueueConfig    `yaml:"queue" mapstructure:"queue"`
	Mail     MailConfig     `yaml:"mail" mapstructure:"mail"`
	Kommo    KommoConfig    `yaml:"kommo" mapstructure:"kommo"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp" mapstructure:"whatsapp"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// StoreConfig selects the database driver: postgres (lib/pq), pgx or sqlite.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type WebhookConfig struct {
	InstagramVerifyToken string `yaml:"instagram_verify_token" mapstructure:"instagram_verify_token"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int `yaml:"rate_burst" mapstructure:"rate_burst"`
}

type AuthConfig struct {
	Required   bool   `yaml:"required" mapstructure:"required"`
	CookieName string `yaml:"cookie_name" mapstructure:"cookie_name"`
}

type IdentityConfig struct {
	APIURL string `yaml:"api_url" mapstructure:"api_url"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

type QueueConfig struct {
	AMQPURL string `yaml:"amqp_url" mapstructure:"amqp_url"`
}

type MailConfig struct {
	Host       string   `yaml:"host" mapstructure:"host"`
	Port       int      `yaml:"port" mapstructure:"port"`
	User       string   `yaml:"user" mapstructure:"user"`
	Password   string   `yaml:"password" mapstructure:"password"`
	From       string   `yaml:"from" mapstructure:"from"`
	AlertTo    []string `yaml:"alert_to" mapstructure:"alert_to"`
	ConsoleURL string   `yaml:"console_url" mapstructure:"console_url"`
}

type KommoConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	APIToken   string `yaml:"api_token" mapstructure:"api_token"`
	PipelineID int    `yaml:"pipeline_id" mapstructure:"pipeline_id"`
}

// WhatsAppConfig drives the sales-team alert; it is off unless
// access_token, phone_id and notify_to are all set.
type WhatsAppConfig struct {
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	AccessToken string   `yaml:"access_token" mapstructure:"access_token"`
	PhoneID     string   `yaml:"phone_id" mapstructure:"phone_id"`
	Template    string   `yaml:"template" mapstructure:"template"`
	NotifyTo    []string `yaml:"notify_to" mapstructure:"notify_to"`
}

// Load reads .env, the optional config.yaml and LEADS_* environment variables,
// in increasing order of precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can override it on Unmarshal.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("webhook.instagram_verify_token", "")
	v.SetDefault("webhook.rate_limit", 60)
	v.SetDefault("webhook.rate_burst", 20)
	v.SetDefault("auth.required", true)
	v.SetDefault("auth.cookie_name", "session_token")
	v.SetDefault("identity.api_url", "")
	v.SetDefault("identity.api_key", "")
	v.SetDefault("queue.amqp_url", "")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "nao-responda@liguemedicina.com")
	v.SetDefault("mail.alert_to", []string{})
	v.SetDefault("mail.console_url", "")
	v.SetDefault("kommo.base_url", "https://liguemedicina.kommo.com/api/v4")
	v.SetDefault("kommo.api_token", "")
	v.SetDefault("kommo.pipeline_id", 0)
	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com/v18.0")
	v.SetDefault("whatsapp.access_token", "")
	v.SetDefault("whatsapp.phone_id", "")
	v.SetDefault("whatsapp.template", "new_lead_alert")
	v.SetDefault("whatsapp.notify_to", []string{})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the serve command cannot start without.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.Auth.Required && c.Identity.APIURL == "" {
		return eris.New("config: identity.api_url is required when auth.required is set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	return nil
}

func (s StoreConfig) Validate() error {
	switch s.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return eris.Errorf("config: unsupported store.driver %q", s.Driver)
	}
	if s.DatabaseURL == "" {
		return eris.New("config: store.database_url is required")
	}
	return nil
}

// Redacted returns a copy safe to print: credentials are masked and the
// password part of URLs is dropped.
func (c Config) Redacted() Config {
	out := c
	out.Store.DatabaseURL = redactURL(c.Store.DatabaseURL)
	out.Queue.AMQPURL = redactURL(c.Queue.AMQPURL)
	out.Webhook.InstagramVerifyToken = mask(c.Webhook.InstagramVerifyToken)
	out.Identity.APIKey = mask(c.Identity.APIKey)
	out.Mail.Password = mask(c.Mail.Password)
	out.Kommo.APIToken = mask(c.Kommo.APIToken)
	out.WhatsApp.AccessToken = mask(c.WhatsApp.AccessToken)
	return out
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal yaml")
	}
	return out, nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
