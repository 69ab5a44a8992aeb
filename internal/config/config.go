package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var (
	ErrEmptyBotToken   = errors.New("telegram bot token is required")
	ErrEmptyChatID     = errors.New("telegram chat id is required")
	ErrEmptyDBPassword = errors.New("database password is required")
	ErrUnknownDriver   = errors.New("unknown database driver")
	ErrInvalidRetries  = errors.New("retry limits must be positive")
)

const DefaultPath = "configs/config.yaml"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App      AppConfig      `yaml:"app" env-prefix:"APP_"`
	Database DatabaseConfig `yaml:"database" env-prefix:"DB_"`
	API      APIConfig      `yaml:"api" env-prefix:"API_"`
	Import   ImportConfig   `yaml:"import" env-prefix:"IMPORT_"`
	NATS     NATSConfig     `yaml:"nats" env-prefix:"NATS_"`
	Notify   NotifyConfig   `yaml:"notify" env-prefix:"NOTIFY_"`
}

type AppConfig struct {
	Name          string `yaml:"name" env:"NAME" env-default:"chuck-jokes"`
	Environment   string `yaml:"environment" env:"ENVIRONMENT" env-default:"production"`
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFile       string `yaml:"log_file" env:"LOG_FILE"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"10"`
	LogMaxBackups int    `yaml:"log_max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver" env:"DRIVER" env-default:"postgres"`
	URL            string `yaml:"url" env:"URL"`
	Host           string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PORT" env-default:"5432"`
	User           string `yaml:"user" env:"USER" env-default:"chucknorris"`
	Password       string `yaml:"password" env:"PASSWORD"`
	Name           string `yaml:"name" env:"NAME" env-default:"chucknorris"`
	MaxConnections int    `yaml:"max_connections" env:"MAX_CONNECTIONS" env-default:"4"`
	MinConnections int    `yaml:"min_connections" env:"MIN_CONNECTIONS" env-default:"1"`
}

// ConnectionString returns URL when set, otherwise a DSN built for Driver.
func (d DatabaseConfig) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == DriverSQLite {
		return d.Name + ".db"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

type APIConfig struct {
	URL       string        `yaml:"url" env:"URL" env-default:"https://api.chucknorris.io/jokes/random"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"30s"`
	UserAgent string        `yaml:"user_agent" env:"USER_AGENT" env-default:"chuck-jokes/1.0"`
}

type ImportConfig struct {
	SlotRetries int `yaml:"slot_retries" env:"SLOT_RETRIES" env-default:"10"`
	RunRetries  int `yaml:"run_retries" env:"RUN_RETRIES" env-default:"10"`
}

type NATSConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
	URL        string `yaml:"url" env:"URL" env-default:"nats://localhost:4222"`
	StreamName string `yaml:"stream_name" env:"STREAM_NAME" env-default:"JOKES"`
	Subject    string `yaml:"subject" env:"SUBJECT" env-default:"jokes.imported"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram" env-prefix:"TELEGRAM_"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Token   string `yaml:"token" env:"TOKEN"`
	ChatID  int64  `yaml:"chat_id" env:"CHAT_ID"`
	URL     string `yaml:"url" env:"URL"`
}

// Load reads the file named by CONFIG_PATH (DefaultPath when unset) and validates it.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultPath
	}

	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read parses configPath and applies environment overrides without validating.
// A missing file is not an error: the config then comes from env and defaults only.
func Read(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %s: %w", configPath, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			return ErrEmptyDBPassword
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}

	if c.Import.SlotRetries < 1 || c.Import.RunRetries < 1 {
		return ErrInvalidRetries
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			return ErrEmptyBotToken
		}
		if c.Notify.Telegram.ChatID == 0 {
			return ErrEmptyChatID
		}
	}

	return nil
}
