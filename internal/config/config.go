package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port          string `yaml:"port" validate:"required,numeric"`
		AdminPassword string `yaml:"admin_password" validate:"required"`
	} `yaml:"server"`
	Storage struct {
		DataFile string `yaml:"data_file" validate:"required"`
	} `yaml:"storage"`
	// Columns are 0-based indexes into each spreadsheet row.
	Columns struct {
		Name int `yaml:"name" validate:"gte=0,nefield=USD,nefield=UZS"`
		USD  int `yaml:"usd" validate:"gte=0"`
		UZS  int `yaml:"uzs" validate:"gte=0,nefield=USD"`
	} `yaml:"columns"`
	Ingest struct {
		Workers int `yaml:"workers" validate:"gte=1,lte=64"`
	} `yaml:"ingest"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		MiniAppURL string `yaml:"mini_app_url" validate:"omitempty,url"`
	} `yaml:"telegram"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Default returns a configuration matching the historical behaviour of the
// service: port 3000, data.json next to the binary, debtor name in column B,
// USD in column D, UZS in column E.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "3000"
	cfg.Server.AdminPassword = "admin123"
	cfg.Storage.DataFile = "data.json"
	cfg.Columns.Name = 1
	cfg.Columns.USD = 3
	cfg.Columns.UZS = 4
	cfg.Ingest.Workers = 4
	cfg.Telegram.MiniAppURL = "https://your-app.up.railway.app/app"
	cfg.Schedule.DigestCron = "0 0 9 * * *"
	return cfg
}

// LoadEnvironment loads variables from a .env file in the working directory.
// A missing file is not an error.
func LoadEnvironment() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded: %v", err)
	} else {
		logger.Info("loaded .env file from current directory")
	}
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Server.AdminPassword = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		cfg.Storage.DataFile = v
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("MINI_APP_URL"); v != "" {
		cfg.Telegram.MiniAppURL = v
	}
	if v := os.Getenv("DIGEST_CRON"); v != "" {
		cfg.Schedule.DigestCron = v
	}
	// An archive picked through the environment replaces the one from the
	// file; setting both variables is left for Validate to reject.
	sqlitePath, postgresDSN := os.Getenv("SQLITE_PATH"), os.Getenv("POSTGRES_DSN")
	if sqlitePath != "" {
		cfg.Database.SQLitePath = sqlitePath
		if postgresDSN == "" {
			cfg.Database.PostgresDSN = ""
		}
	}
	if postgresDSN != "" {
		cfg.Database.PostgresDSN = postgresDSN
		if sqlitePath == "" {
			cfg.Database.SQLitePath = ""
		}
	}
	if v := os.Getenv("INGEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.Workers = n
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values. Column roles are
// checked here so a drifted export layout is rejected at startup instead of
// being misparsed silently.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", ve.Namespace(), ve.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Database.SQLitePath != "" && c.Database.PostgresDSN != "" {
		return fmt.Errorf("invalid config: database.sqlite_path and database.postgres_dsn are mutually exclusive")
	}
	return nil
}

// BotEnabled reports whether the Telegram bot should be started.
func (c *Config) BotEnabled() bool {
	return c.Telegram.BotToken != ""
}
