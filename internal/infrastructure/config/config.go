package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/example/court-scheduler/internal/application/timegate"
	"github.com/example/court-scheduler/internal/domain/portal"
)

type Config struct {
	App      App      `yaml:"app"`
	Portal   Portal   `yaml:"portal"`
	Browser  Browser  `yaml:"browser"`
	Redis    Redis    `yaml:"redis"`
	Vault    Vault    `yaml:"vault"`
	Telegram Telegram `yaml:"telegram"`
}

type App struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

type Portal struct {
	LoginURL   string `yaml:"login_url" env:"PORTAL_LOGIN_URL"`
	BookingURL string `yaml:"booking_url" env:"PORTAL_BOOKING_URL"`
	Username   string `yaml:"username" env:"PORTAL_USERNAME"`
	Password   string `yaml:"password" env:"PORTAL_PASSWORD"`

	ReleaseTime       string `yaml:"release_time" env:"RELEASE_TIME" env-default:"06:59:58"`
	Timezone          string `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
	DefaultDateCutoff string `yaml:"default_date_cutoff" env:"DEFAULT_DATE_CUTOFF" env-default:"07:00:00"`
	BookingDaysAhead  int    `yaml:"booking_days_ahead" env:"BOOKING_DAYS_AHEAD" env-default:"7"`

	ElementTimeout  time.Duration `yaml:"element_timeout" env:"ELEMENT_TIMEOUT" env-default:"1s"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout" env:"PAGE_LOAD_TIMEOUT" env-default:"5s"`
}

type Browser struct {
	Headless      bool   `yaml:"headless" env:"BROWSER_HEADLESS" env-default:"true"`
	ExecPath      string `yaml:"exec_path" env:"BROWSER_EXEC_PATH"`
	RemoteURL     string `yaml:"remote_url" env:"CHROME_REMOTE_URL"`
	ScreenshotDir string `yaml:"screenshot_dir" env:"SCREENSHOT_DIR"`
}

// Redis backs the run lock. An empty Addr disables locking.
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"RUN_LOCK_TTL" env-default:"30m"`
}

// Vault is the credential store. CredEncKey is base64.
type Vault struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	CredEncKey  string `yaml:"cred_enc_key" env:"CRED_ENC_KEY"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// FromEnv reads configuration from the environment (and a .env file, if any).
func FromEnv() (Config, error) {
	return Load("")
}

// Load reads path (YAML) when given, then lets environment variables override it.
func Load(path string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if _, err := c.Release(); err != nil {
		return fmt.Errorf("RELEASE_TIME: %w", err)
	}
	if _, err := c.Cutoff(); err != nil {
		return fmt.Errorf("DEFAULT_DATE_CUTOFF: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	if c.Portal.BookingDaysAhead < 0 {
		return fmt.Errorf("BOOKING_DAYS_AHEAD must not be negative (got %d)", c.Portal.BookingDaysAhead)
	}
	if c.Portal.ElementTimeout <= 0 || c.Portal.PageLoadTimeout <= 0 {
		return fmt.Errorf("ELEMENT_TIMEOUT and PAGE_LOAD_TIMEOUT must be positive")
	}
	return nil
}

func (c Config) Release() (timegate.Instant, error) {
	return timegate.ParseInstant(c.Portal.ReleaseTime)
}

// Cutoff is the time of day after which the default date moves a day later.
func (c Config) Cutoff() (time.Duration, error) {
	in, err := timegate.ParseInstant(c.Portal.DefaultDateCutoff)
	if err != nil {
		return 0, err
	}
	return in.Offset(), nil
}

func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Portal.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func (c Config) Timeouts() portal.Timeouts {
	return portal.Timeouts{Element: c.Portal.ElementTimeout, PageLoad: c.Portal.PageLoadTimeout}
}

func (c Config) LoginURL() string {
	if c.Portal.LoginURL != "" {
		return c.Portal.LoginURL
	}
	return portal.DefaultLoginURL
}

func (c Config) BookingURL() string {
	if c.Portal.BookingURL != "" {
		return c.Portal.BookingURL
	}
	return portal.DefaultBookingURL
}

func (c Config) Credentials() portal.Credentials {
	return portal.Credentials{Username: c.Portal.Username, Password: c.Portal.Password}
}
