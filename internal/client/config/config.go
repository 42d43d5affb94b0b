package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RESTODASH_"

// Config holds runtime settings for the restodash client.
type Config struct {
	APIBaseURL     string        `env:"API_BASE_URL"`
	StoragePath    string        `env:"STORAGE_PATH"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`
	OTLPEndpoint   string        `env:"OTLP_ENDPOINT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:3000/api"
	c.StoragePath = defaultStoragePath()
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.OTLPEndpoint = ""
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "restodash.db"
	}
	return filepath.Join(dir, "restodash", "restodash.db")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url %q: must be an absolute http(s) url", c.APIBaseURL)
	}
	if c.StoragePath == "" {
		return errors.New("storage path must not be empty")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout %s: must not be negative", c.RequestTimeout)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// LoadConfig constructs a Config: defaults, then the config file named by the
// --config flag, then the environment (and ./.env), then flags that were set
// explicitly on fs. Later sources take precedence over earlier ones.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, nil, ".env")
}

// load is LoadConfig with an injectable environment; a nil environ means the
// process environment.
func load(fs *pflag.FlagSet, environ map[string]string, dotenv string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if fs != nil {
		if path, _ := fs.GetString(FlagConfig); path != "" {
			if err := parseFile(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	if err := parseEnv(cfg, environ, dotenv); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
