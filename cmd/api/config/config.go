// Package config loads the terminal service settings from config.yml and the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App      `yaml:"app"`
		HTTP     `yaml:"http"`
		Log      `yaml:"logger"`
		Upstream `yaml:"upstream"`
		Store    `yaml:"store"`
		Tracing  `yaml:"tracing"`
		Terminal `yaml:"terminal"`
		Print    `yaml:"print"`
	}

	App struct {
		Name    string `yaml:"name"    env:"APP_NAME"    env-default:"posterminal"`
		Version string `yaml:"version" env:"APP_VERSION" env-default:"dev"`
	}

	HTTP struct {
		Host            string        `yaml:"host"             env:"HTTP_HOST"             env-default:"0.0.0.0"`
		Port            int           `yaml:"port"             env:"HTTP_PORT"             env-default:"8888"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
		// ReverseProxyURL is handed to UIs asking where the order API lives.
		ReverseProxyURL string `yaml:"reverse_proxy_url" env:"REVERSE_PROXY_URL"`
	}

	Log struct {
		Level      string `yaml:"log_level"   env:"LOG_LEVEL"        env-default:"info"`
		File       string `yaml:"file"        env:"LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"  env-default:"50"`
		MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"  env-default:"3"`
		MaxAgeDays int    `yaml:"max_age"     env:"LOG_MAX_AGE_DAYS" env-default:"28"`
	}

	// Upstream locates the coffeeshop order API. BaseURL wins over WebURL
	// discovery when both are set.
	Upstream struct {
		BaseURL string        `yaml:"base_url" env:"UPSTREAM_BASE_URL"`
		WebURL  string        `yaml:"web_url"  env:"UPSTREAM_WEB_URL"`
		Timeout time.Duration `yaml:"timeout"  env:"UPSTREAM_TIMEOUT" env-default:"10s"`
		Retries uint          `yaml:"retries"  env:"UPSTREAM_RETRIES" env-default:"3"`
	}

	Store struct {
		// Driver is one of memory, sqlite, postgres, redis.
		Driver        string `yaml:"driver"         env:"STORE_DRIVER"         env-default:"sqlite"`
		Path          string `yaml:"path"           env:"STORE_PATH"           env-default:"posterminal.db"`
		DSN           string `yaml:"dsn"            env:"STORE_DSN"`
		RedisAddr     string `yaml:"redis_addr"     env:"STORE_REDIS_ADDR"     env-default:"localhost:6379"`
		RedisPassword string `yaml:"redis_password" env:"STORE_REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db"       env:"STORE_REDIS_DB"`
		RedisPrefix   string `yaml:"redis_prefix"   env:"STORE_REDIS_PREFIX"   env-default:"pos"`
	}

	Tracing struct {
		Host        string  `yaml:"host"        env:"OTEL_HOST"`
		Probability float64 `yaml:"probability" env:"OTEL_PROBABILITY" env-default:"1"`
	}

	Terminal struct {
		ReceiptPrefix    string    `yaml:"receipt_prefix"    env:"TERMINAL_RECEIPT_PREFIX"    env-default:"TWPOS-KS-"`
		DateLayout       string    `yaml:"date_layout"       env:"TERMINAL_DATE_LAYOUT"       env-default:"02/01/06 15.04"`
		TimeZone         string    `yaml:"time_zone"         env:"TERMINAL_TIME_ZONE"         env-default:"Local"`
		OrderSource      int       `yaml:"order_source"      env:"TERMINAL_ORDER_SOURCE"`
		Location         int       `yaml:"location"          env:"TERMINAL_LOCATION"`
		CommandType      int       `yaml:"command_type"      env:"TERMINAL_COMMAND_TYPE"`
		LoyaltyMemberID  string    `yaml:"loyalty_member_id" env:"TERMINAL_LOYALTY_MEMBER_ID"`
		KitchenThreshold int       `yaml:"kitchen_threshold" env:"TERMINAL_KITCHEN_THRESHOLD" env-default:"5"`
		ExpandQuantity   bool      `yaml:"expand_quantity"   env:"TERMINAL_EXPAND_QUANTITY"`
		Denominations    []float64 `yaml:"denominations"     env:"TERMINAL_DENOMINATIONS"     env-separator:","`
		MuteAudio        bool      `yaml:"mute_audio"        env:"TERMINAL_MUTE_AUDIO"`
	}

	Print struct {
		SpoolDir string `yaml:"spool_dir" env:"PRINT_SPOOL_DIR" env-default:"spool"`
		Stdout   bool   `yaml:"stdout"    env:"PRINT_STDOUT"`
	}
)

// New reads path when it exists and applies environment overrides on top.
func New(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Zone resolves TimeZone.
func (t Terminal) Zone() (*time.Location, error) {
	if t.TimeZone == "" || t.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(t.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config error: time zone %q: %w", t.TimeZone, err)
	}
	return loc, nil
}
