package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"gr-rentals/utils"
)

const (
	DefaultFeedURL   = "https://grandrapids.craigslist.org/search/apa?format=rss"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config holds all application configuration. It is built once by Load and
// passed to every entry point.
type Config struct {
	DatabaseURL string `yaml:"database_url" validate:"required"`
	AppPassword string `yaml:"app_password"`

	// SessionSecret signs dashboard session tokens. Empty means a random
	// key per process, so a restart logs everyone out.
	SessionSecret  string `yaml:"session_secret"`
	SessionTTLMins int    `yaml:"session_ttl_mins" validate:"gt=0"`

	FeedURL         string `yaml:"feed_url" validate:"required,url"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec" validate:"gt=0"`
	FetchMode       string `yaml:"fetch_mode" validate:"oneof=http browser"`
	UserAgent       string `yaml:"user_agent" validate:"required"`
	ChromeBin       string `yaml:"chrome_bin"`

	HTTPAddr    string `yaml:"http_addr" validate:"required"`
	CacheTTLSec int    `yaml:"cache_ttl_sec" validate:"gt=0"`

	ScrapeCron string `yaml:"scrape_cron" validate:"required"`
	LogLevel   string `yaml:"log_level"`
}

// Defaults returns a Config with every optional field filled in.
func Defaults() *Config {
	return &Config{
		FeedURL:         DefaultFeedURL,
		FetchTimeoutSec: 20,
		FetchMode:       "http",
		UserAgent:       DefaultUserAgent,
		HTTPAddr:        ":8501",
		CacheTTLSec:     300,
		SessionTTLMins:  720,
		ScrapeCron:      "0 */6 * * *",
		LogLevel:        "info",
	}
}

// Load reads .env, then the YAML file named by RENTALS_CONFIG if set, then
// environment variables, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Defaults()
	if path := os.Getenv("RENTALS_CONFIG"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", utils.ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", utils.ErrConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.AppPassword = getEnv("APP_PASSWORD", c.AppPassword)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.SessionTTLMins = getEnvInt("SESSION_TTL_MINS", c.SessionTTLMins)
	c.FeedURL = getEnv("FEED_URL", c.FeedURL)
	c.FetchTimeoutSec = getEnvInt("FETCH_TIMEOUT_SEC", c.FetchTimeoutSec)
	c.FetchMode = strings.ToLower(getEnv("FETCH_MODE", c.FetchMode))
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.CacheTTLSec = getEnvInt("CACHE_TTL_SEC", c.CacheTTLSec)
	c.ScrapeCron = getEnv("SCRAPE_CRON", c.ScrapeCron)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", envName(fe.Field()), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return fmt.Errorf("%w: %s", utils.ErrConfig, strings.Join(msgs, "; "))
	}
	return nil
}

// FetchTimeout is the fixed timeout for the feed request.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// CacheTTL is how long the dashboard keeps the loaded table.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// SessionTTL is how long a dashboard login stays valid.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// envName maps a struct field to the variable users set.
func envName(field string) string {
	switch field {
	case "DatabaseURL":
		return "DATABASE_URL"
	case "FeedURL":
		return "FEED_URL"
	case "FetchTimeoutSec":
		return "FETCH_TIMEOUT_SEC"
	case "FetchMode":
		return "FETCH_MODE"
	case "UserAgent":
		return "USER_AGENT"
	case "HTTPAddr":
		return "HTTP_ADDR"
	case "CacheTTLSec":
		return "CACHE_TTL_SEC"
	case "SessionTTLMins":
		return "SESSION_TTL_MINS"
	case "ScrapeCron":
		return "SCRAPE_CRON"
	}
	return field
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
