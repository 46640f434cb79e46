package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Queue       QueueConfig      `mapstructure:"queue"`
	Mailer      MailerConfig     `mapstructure:"mailer"`
	Sending     SendingConfig    `mapstructure:"sending"`
	Compliance  ComplianceConfig `mapstructure:"compliance"`
	Signature   SignatureConfig  `mapstructure:"signature"`
	Scheduler   SchedulerConfig  `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// QueueConfig holds RabbitMQ connection configuration
type QueueConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// MailerConfig holds outbound mail transport configuration. Provider
// selects between the Gmail API sender and plain SMTP.
type MailerConfig struct {
	Provider     string        `mapstructure:"provider"`
	FromEmail    string        `mapstructure:"from_email"`
	FromName     string        `mapstructure:"from_name"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RefreshToken string        `mapstructure:"refresh_token"`
	UserEmail    string        `mapstructure:"user_email"`
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUser     string        `mapstructure:"smtp_user"`
	SMTPPassword string        `mapstructure:"smtp_password"`
}

// SendingConfig holds the send guardrail knobs. Enabled is the global
// kill switch: when false every send attempt fails with
// sending_disabled before any other gate runs.
type SendingConfig struct {
	Enabled          bool  `mapstructure:"enabled"`
	DailyLimit       int64 `mapstructure:"daily_limit"`
	DomainDailyLimit int64 `mapstructure:"domain_daily_limit"`
	ErrorSpikeLimit  int64 `mapstructure:"error_spike_limit"`
}

// ComplianceConfig maps region codes to send policies.
type ComplianceConfig struct {
	RegionPolicies map[string]string `mapstructure:"region_policies"`
}

// SignatureConfig holds the required outbound signature block.
type SignatureConfig struct {
	Name     string `mapstructure:"name"`
	Title    string `mapstructure:"title"`
	Org      string `mapstructure:"org"`
	Website  string `mapstructure:"website"`
	Location string `mapstructure:"location"`
}

// SchedulerConfig holds the poll loop cadence and the cron expression
// for each pipeline job.
type SchedulerConfig struct {
	PollInterval time.Duration     `mapstructure:"poll_interval"`
	Jobs         map[string]string `mapstructure:"jobs"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", "5672")
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")

	viper.SetDefault("mailer.provider", "gmail")
	viper.SetDefault("mailer.send_timeout", "30s")
	viper.SetDefault("mailer.smtp_port", 587)

	viper.SetDefault("sending.enabled", false)
	viper.SetDefault("sending.daily_limit", 5)
	viper.SetDefault("sending.domain_daily_limit", 2)
	viper.SetDefault("sending.error_spike_limit", 5)

	viper.SetDefault("compliance.region_policies", map[string]string{
		"US": "auto_send",
		"EU": "opt_in_only",
	})

	viper.SetDefault("scheduler.poll_interval", "60s")
	viper.SetDefault("scheduler.jobs", map[string]string{
		"discover":    "0 6 * * *",
		"qualify":     "30 6 * * *",
		"enrich":      "0 7 * * *",
		"outreach":    "0 9 * * *",
		"send_outbox": "*/15 * * * *",
	})
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("environment", "ENVIRONMENT")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Queue
	viper.BindEnv("queue.host", "QUEUE_HOST")
	viper.BindEnv("queue.port", "QUEUE_PORT")
	viper.BindEnv("queue.user", "QUEUE_USER")
	viper.BindEnv("queue.password", "QUEUE_PASSWORD")

	// Mailer
	viper.BindEnv("mailer.provider", "MAILER_PROVIDER")
	viper.BindEnv("mailer.from_email", "EMAIL_FROM")
	viper.BindEnv("mailer.from_name", "EMAIL_DISPLAY_NAME")
	viper.BindEnv("mailer.send_timeout", "MAILER_SEND_TIMEOUT")
	viper.BindEnv("mailer.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("mailer.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("mailer.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("mailer.user_email", "GMAIL_USER_EMAIL")
	viper.BindEnv("mailer.smtp_host", "SMTP_HOST")
	viper.BindEnv("mailer.smtp_port", "SMTP_PORT")
	viper.BindEnv("mailer.smtp_user", "SMTP_USER")
	viper.BindEnv("mailer.smtp_password", "SMTP_PASSWORD")

	// Sending guardrails
	viper.BindEnv("sending.enabled", "ENABLE_SENDING")
	viper.BindEnv("sending.daily_limit", "SEND_DAILY_LIMIT")
	viper.BindEnv("sending.domain_daily_limit", "SEND_DOMAIN_DAILY_LIMIT")
	viper.BindEnv("sending.error_spike_limit", "SEND_ERROR_SPIKE_LIMIT")

	// Signature
	viper.BindEnv("signature.name", "SIGNATURE_NAME")
	viper.BindEnv("signature.title", "SIGNATURE_TITLE")
	viper.BindEnv("signature.org", "SIGNATURE_ORG")
	viper.BindEnv("signature.website", "SIGNATURE_WEBSITE")
	viper.BindEnv("signature.location", "SIGNATURE_LOCATION")

	// Scheduler
	viper.BindEnv("scheduler.poll_interval", "SCHEDULER_POLL_INTERVAL")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// GetURL returns the AMQP connection string
func (c *QueueConfig) GetURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	switch c.Mailer.Provider {
	case "gmail":
		if c.Mailer.ClientID == "" || c.Mailer.ClientSecret == "" || c.Mailer.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required when mailer provider is gmail")
		}
	case "smtp":
		if c.Mailer.SMTPHost == "" || c.Mailer.SMTPUser == "" || c.Mailer.SMTPPassword == "" {
			return fmt.Errorf("SMTP credentials are required when mailer provider is smtp")
		}
	default:
		return fmt.Errorf("unknown mailer provider: %s", c.Mailer.Provider)
	}

	if c.Mailer.FromEmail == "" {
		return fmt.Errorf("mailer from_email is required")
	}

	if c.Sending.DailyLimit <= 0 || c.Sending.DomainDailyLimit <= 0 {
		return fmt.Errorf("send limits must be greater than 0")
	}

	if c.Sending.ErrorSpikeLimit <= 0 {
		return fmt.Errorf("error spike limit must be greater than 0")
	}

	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler poll interval must be greater than 0")
	}

	return nil
}
