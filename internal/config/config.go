package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// MaxTitleLengthLimit bounds forum.max_title_length
const MaxTitleLengthLimit = 1000

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		Swagger         bool   `yaml:"swagger" env:"SERVER_SWAGGER"`
		PublicHost      string `yaml:"public_host" env:"SERVER_PUBLIC_HOST"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
		Seed   bool   `yaml:"seed" env:"STORAGE_SEED"`
	} `yaml:"storage"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Forum struct {
		PageSize       int    `yaml:"page_size" env:"FORUM_PAGE_SIZE"`
		MaxPageSize    int    `yaml:"max_page_size" env:"FORUM_MAX_PAGE_SIZE"`
		ActiveWindow   string `yaml:"active_window" env:"FORUM_ACTIVE_WINDOW"`
		ActiveLimit    int    `yaml:"active_limit" env:"FORUM_ACTIVE_LIMIT"`
		RecentLimit    int    `yaml:"recent_limit" env:"FORUM_RECENT_LIMIT"`
		MaxTitleLength int    `yaml:"max_title_length" env:"FORUM_MAX_TITLE_LENGTH"`
	} `yaml:"forum"`

	Mail struct {
		Host          string `yaml:"host" env:"MAIL_HOST"`
		Port          int    `yaml:"port" env:"MAIL_PORT"`
		Username      string `yaml:"username" env:"MAIL_USERNAME"`
		Password      string `yaml:"password" env:"MAIL_PASSWORD"`
		FromName      string `yaml:"from_name" env:"MAIL_FROM_NAME"`
		FromEmail     string `yaml:"from_email" env:"MAIL_FROM_EMAIL"`
		UseTLS        bool   `yaml:"use_tls" env:"MAIL_USE_TLS"`
		SubjectPrefix string `yaml:"subject_prefix" env:"MAIL_SUBJECT_PREFIX"`
		Timeout       string `yaml:"timeout" env:"MAIL_TIMEOUT"`
		Async         bool   `yaml:"async" env:"MAIL_ASYNC"`
		BaseURL       string `yaml:"base_url" env:"MAIL_BASE_URL"`
	} `yaml:"mail"`

	Search struct {
		Enabled bool `yaml:"enabled" env:"SEARCH_ENABLED"`
	} `yaml:"search"`
}

// LoadConfig loads configuration from a file and environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"
	config.Server.Swagger = true

	config.Storage.Driver = StorageDriverPostgres
	config.Storage.Seed = true

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "uniforum"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.Issuer = "uniforum.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Forum.PageSize = 10
	config.Forum.MaxPageSize = 100
	config.Forum.ActiveWindow = "36h"
	config.Forum.ActiveLimit = 10
	config.Forum.RecentLimit = 10
	config.Forum.MaxTitleLength = 100

	config.Mail.Port = 587
	config.Mail.FromName = "Forum"
	config.Mail.UseTLS = true
	config.Mail.SubjectPrefix = "[Forum]"
	config.Mail.Timeout = "10s"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Storage.Driver {
	case StorageDriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Forum.PageSize <= 0 || config.Forum.MaxPageSize < config.Forum.PageSize {
		return fmt.Errorf("invalid forum page size %d (max %d)", config.Forum.PageSize, config.Forum.MaxPageSize)
	}

	if config.Forum.MaxTitleLength <= 0 || config.Forum.MaxTitleLength > MaxTitleLengthLimit {
		return fmt.Errorf("forum max title length must be between 1 and %d", MaxTitleLengthLimit)
	}

	durations := map[string]string{
		"server shutdown timeout": config.Server.ShutdownTimeout,
		"forum active window":     config.Forum.ActiveWindow,
		"mail timeout":            config.Mail.Timeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// ActiveWindow returns the parsed active-thread window. LoadConfig has
// already validated the value.
func (c *Config) ActiveWindow() time.Duration {
	d, _ := time.ParseDuration(c.Forum.ActiveWindow)
	return d
}

// MailTimeout returns the parsed notification timeout.
func (c *Config) MailTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Mail.Timeout)
	return d
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
