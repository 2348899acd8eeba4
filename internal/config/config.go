package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// postgres | pgx | sqlite
	Driver string `yaml:"driver"`
	DSN    string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	ResetTTL   time.Duration `yaml:"reset_ttl"`
}

type FilesConfig struct {
	// fs | s3 | memory
	Driver  string   `yaml:"driver"`
	RootDir string   `yaml:"root_dir"`
	MaxSize int64    `yaml:"max_size"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	// APIEndpoint overrides the Bot API URL format; empty means api.telegram.org.
	APIEndpoint string `yaml:"api_endpoint"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Files    FilesConfig    `yaml:"files"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
}

// LoadConfig reads the YAML file at path, applies DEALDESK_* environment
// overrides and fills defaults. A missing file is not an error: the
// environment and defaults alone can describe a working setup.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/crm.db"
	}
	if c.Auth.AccessTTL <= 0 {
		c.Auth.AccessTTL = time.Hour
	}
	if c.Auth.RefreshTTL <= 0 {
		c.Auth.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Auth.ResetTTL <= 0 {
		c.Auth.ResetTTL = time.Hour
	}
	if c.Files.Driver == "" {
		c.Files.Driver = "fs"
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./uploads"
	}
	if c.Files.MaxSize <= 0 {
		c.Files.MaxSize = 32 << 20
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEALDESK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("DEALDESK_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DEALDESK_DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("DEALDESK_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DEALDESK_FILES_DRIVER"); v != "" {
		c.Files.Driver = v
	}
	if v := os.Getenv("DEALDESK_FILES_ROOT"); v != "" {
		c.Files.RootDir = v
	}
	if v := os.Getenv("DEALDESK_S3_BUCKET"); v != "" {
		c.Files.S3.Bucket = v
	}
	if v := os.Getenv("DEALDESK_S3_ENDPOINT"); v != "" {
		c.Files.S3.Endpoint = v
	}
	if v := os.Getenv("DEALDESK_SMTP_PASSWORD"); v != "" {
		c.Email.SMTPPassword = v
	}
	if v := os.Getenv("DEALDESK_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("DEALDESK_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
	}
	switch c.Files.Driver {
	case "fs", "memory":
	case "s3":
		if c.Files.S3.Bucket == "" {
			return fmt.Errorf("files.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown files driver %q", c.Files.Driver)
	}
	return nil
}
