package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	FailOpen   = "fail_open"
	FailClosed = "fail_closed"

	MailProviderSendGrid = "sendgrid"
	MailProviderSMTP     = "smtp"
)

type Config struct {
	Server       ServerConfig      `mapstructure:"server"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
	Redis        RedisConfig       `mapstructure:"redis"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Contact      ContactConfig     `mapstructure:"contact"`
	APIRateLimit RateLimitConfig   `mapstructure:"api_rate_limit"`
	LogRateLimit TokenBucketConfig `mapstructure:"log_rate_limit"`
	Captcha      CaptchaConfig     `mapstructure:"captcha"`
	Mail         MailConfig        `mapstructure:"mail"`
	Monitoring   MonitoringConfig  `mapstructure:"monitoring"`
	OpenAI       OpenAIConfig      `mapstructure:"openai"`
}

type ServerConfig struct {
	APIPort        int           `mapstructure:"api_port"`
	MetricsPort    int           `mapstructure:"metrics_port"`
	Host           string        `mapstructure:"host"`
	BodyLimit      int           `mapstructure:"body_limit"`
	MaxPostBody    int           `mapstructure:"max_post_body"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	APIKey         string        `mapstructure:"api_key"`
	SwaggerFile    string        `mapstructure:"swagger_file"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ContactConfig drives the contact form submission gate.
type ContactConfig struct {
	Window             time.Duration `mapstructure:"window"`
	MaxRequests        int           `mapstructure:"max_requests"`
	KeyPrefix          string        `mapstructure:"key_prefix"`
	FailurePolicy      string        `mapstructure:"failure_policy"`
	Atomic             bool          `mapstructure:"atomic"`
	CountFailedCaptcha bool          `mapstructure:"count_failed_captcha"`
	StoreTimeout       time.Duration `mapstructure:"store_timeout"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Window        time.Duration `mapstructure:"window"`
	MaxRequests   int           `mapstructure:"max_requests"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	FailurePolicy string        `mapstructure:"failure_policy"`
}

type TokenBucketConfig struct {
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type CaptchaConfig struct {
	Secret      string        `mapstructure:"secret"`
	VerifyURL   string        `mapstructure:"verify_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures int           `mapstructure:"max_failures"`
}

type MailConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	From        string        `mapstructure:"from"`
	To          string        `mapstructure:"to"`
	Brand       string        `mapstructure:"brand"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures int           `mapstructure:"max_failures"`
	SMTP        SMTPConfig    `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type MonitoringConfig struct {
	InternalKey          string           `mapstructure:"internal_key"`
	SlowRequestThreshold time.Duration    `mapstructure:"slow_request_threshold"`
	Workers              int              `mapstructure:"workers"`
	QueueSize            int              `mapstructure:"queue_size"`
	Exporters            []ExporterConfig `mapstructure:"exporters"`
}

// ExporterConfig names a security event exporter and its free-form settings.
type ExporterConfig struct {
	Name     string                 `mapstructure:"name"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var globalConfig Config

// Load reads config.yaml and the environment. A missing or unreadable file is
// reported, but globalConfig is still filled from environment and defaults.
func Load(configPath string) error {
	err := loadConfigFile(configPath, "config", &globalConfig)
	bindLegacyEnv(&globalConfig)
	SetDefaultValues(&globalConfig)
	if err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}
	return nil
}

// envKeys are bound explicitly so they apply even when config.yaml does not
// mention them. AutomaticEnv alone only overrides keys the file defines.
var envKeys = []string{
	"server.api_port",
	"server.metrics_port",
	"server.host",
	"server.api_key",
	"server.swagger_file",
	"metrics.enabled",
	"redis.host",
	"redis.port",
	"redis.password",
	"redis.db",
	"redis.tls",
	"database.enabled",
	"database.host",
	"database.port",
	"database.user",
	"database.password",
	"database.name",
	"database.sslmode",
	"contact.window",
	"contact.max_requests",
	"contact.failure_policy",
	"contact.atomic",
	"captcha.secret",
	"captcha.verify_url",
	"mail.provider",
	"mail.api_key",
	"mail.endpoint",
	"mail.from",
	"mail.to",
	"mail.brand",
	"mail.smtp.host",
	"mail.smtp.port",
	"mail.smtp.username",
	"mail.smtp.password",
	"monitoring.internal_key",
	"openai.api_key",
	"openai.model",
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var readErr error
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			readErr = fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		} else {
			readErr = fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
		}
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return readErr
}

// bindLegacyEnv fills secrets from the environment names the website deployment already uses.
func bindLegacyEnv(cfg *Config) {
	legacy := []struct {
		env string
		dst *string
	}{
		{"SENDGRID_API_KEY", &cfg.Mail.APIKey},
		{"SENDGRID_FROM_EMAIL", &cfg.Mail.From},
		{"CONTACT_EMAIL", &cfg.Mail.To},
		{"HCAPTCHA_SECRET_KEY", &cfg.Captcha.Secret},
		{"MONITORING_KEY", &cfg.Monitoring.InternalKey},
		{"OPENAI_API_KEY", &cfg.OpenAI.APIKey},
		{"API_KEY", &cfg.Server.APIKey},
	}
	for _, l := range legacy {
		if *l.dst != "" {
			continue
		}
		if v := viper.GetString(l.env); v != "" {
			*l.dst = v
		}
	}
	if url := viper.GetString("SECURITY_WEBHOOK_URL"); url != "" && !hasExporter(cfg, "webhook") {
		cfg.Monitoring.Exporters = append(cfg.Monitoring.Exporters, ExporterConfig{
			Name:     "webhook",
			Settings: map[string]interface{}{"url": url},
		})
	}
}

func hasExporter(cfg *Config, name string) bool {
	for _, e := range cfg.Monitoring.Exporters {
		if e.Name == name {
			return true
		}
	}
	return false
}

// SetDefaultValues fills every zero value that has a sensible default.
func SetDefaultValues(cfg *Config) {
	if cfg.Server.APIPort == 0 {
		cfg.Server.APIPort = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 8 * 1024 * 1024
	}
	if cfg.Server.MaxPostBody == 0 {
		cfg.Server.MaxPostBody = 1024 * 1024
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.SwaggerFile == "" {
		cfg.Server.SwaggerFile = "./docs/swagger.json"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Contact.Window == 0 {
		cfg.Contact.Window = time.Hour
	}
	if cfg.Contact.MaxRequests == 0 {
		cfg.Contact.MaxRequests = 5
	}
	if cfg.Contact.KeyPrefix == "" {
		cfg.Contact.KeyPrefix = "contact-rate-limit"
	}
	if cfg.Contact.FailurePolicy == "" {
		cfg.Contact.FailurePolicy = FailClosed
	}
	if cfg.Contact.StoreTimeout == 0 {
		cfg.Contact.StoreTimeout = 5 * time.Second
	}

	if cfg.APIRateLimit.Window == 0 {
		cfg.APIRateLimit.Window = 15 * time.Minute
	}
	if cfg.APIRateLimit.MaxRequests == 0 {
		cfg.APIRateLimit.MaxRequests = 100
	}
	if cfg.APIRateLimit.KeyPrefix == "" {
		cfg.APIRateLimit.KeyPrefix = "rate-limit"
	}
	if cfg.APIRateLimit.FailurePolicy == "" {
		cfg.APIRateLimit.FailurePolicy = FailOpen
	}

	if cfg.LogRateLimit.RPS == 0 {
		cfg.LogRateLimit.RPS = 2
	}
	if cfg.LogRateLimit.Burst == 0 {
		cfg.LogRateLimit.Burst = 10
	}
	if cfg.LogRateLimit.IdleTTL == 0 {
		cfg.LogRateLimit.IdleTTL = 10 * time.Minute
	}

	if cfg.Captcha.VerifyURL == "" {
		cfg.Captcha.VerifyURL = "https://hcaptcha.com/siteverify"
	}
	if cfg.Captcha.Timeout == 0 {
		cfg.Captcha.Timeout = 5 * time.Second
	}
	if cfg.Captcha.MaxFailures == 0 {
		cfg.Captcha.MaxFailures = 5
	}

	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = MailProviderSendGrid
	}
	if cfg.Mail.Endpoint == "" {
		cfg.Mail.Endpoint = "https://api.sendgrid.com/v3/mail/send"
	}
	if cfg.Mail.Brand == "" {
		cfg.Mail.Brand = "ImagiNative AI Studios"
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = 10 * time.Second
	}
	if cfg.Mail.MaxFailures == 0 {
		cfg.Mail.MaxFailures = 5
	}
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = 587
	}

	if cfg.Monitoring.SlowRequestThreshold == 0 {
		cfg.Monitoring.SlowRequestThreshold = time.Second
	}
	if cfg.Monitoring.Workers == 0 {
		cfg.Monitoring.Workers = 4
	}
	if cfg.Monitoring.QueueSize == 0 {
		cfg.Monitoring.QueueSize = 1000
	}

	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "whisper-1"
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 30 * time.Second
	}
}

// Validate reports configuration that cannot serve traffic.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name  string
		value string
	}{
		{"contact.failure_policy", c.Contact.FailurePolicy},
		{"api_rate_limit.failure_policy", c.APIRateLimit.FailurePolicy},
	} {
		if p.value != FailOpen && p.value != FailClosed {
			return fmt.Errorf("%s must be %q or %q, got %q", p.name, FailOpen, FailClosed, p.value)
		}
	}
	if c.Contact.MaxRequests < 1 {
		return errors.New("contact.max_requests must be positive")
	}
	if c.Contact.Window <= 0 {
		return errors.New("contact.window must be positive")
	}
	switch c.Mail.Provider {
	case MailProviderSendGrid:
		if c.Mail.APIKey == "" {
			return errors.New("mail.api_key is required for the sendgrid provider")
		}
	case MailProviderSMTP:
		if c.Mail.SMTP.Host == "" {
			return errors.New("mail.smtp.host is required for the smtp provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}
	if c.Mail.From == "" || c.Mail.To == "" {
		return errors.New("mail.from and mail.to are required")
	}
	if c.Captcha.Secret == "" {
		return errors.New("captcha.secret is required")
	}
	return nil
}

func GetConfig() *Config {
	return &globalConfig
}
