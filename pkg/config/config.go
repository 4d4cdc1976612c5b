package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m"
type Duration time.Duration

// Duration returns the wrapped time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML accepts either a duration string ("90s", "5m") or an
// integer nanosecond count
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
}

// MarshalYAML renders the duration in its string form
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds all configuration options for the hashtag synchronizer
type Config struct {
	// Server is the local Mastodon server statuses are imported into
	Server string `yaml:"server"`

	// Auth holds the app credentials and user access token
	Auth AuthConfig `yaml:"auth"`

	// Hashtags to synchronize, in processing order
	Hashtags []Hashtag `yaml:"hashtags"`

	// Rates holds the limiter quotas and pass cadence
	Rates RatesConfig `yaml:"rates"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// AuthConfig holds the registered app credentials and access token
type AuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Token        string `yaml:"token"`
}

// Hashtag describes one tag to mirror from a set of remote servers
type Hashtag struct {
	// Name of the hashtag, without the leading #
	Name string `yaml:"name"`

	// Sources are the remote server hosts to fetch from, in order
	Sources []string `yaml:"sources"`

	// Any holds optional alternate-tag filters (the API's any[] parameter)
	Any []string `yaml:"any,omitempty"`
}

// RatesConfig holds the four limiter budgets and the inter-pass delay
type RatesConfig struct {
	// QueriesPerMinute limits API queries per server (remote fetches,
	// local fetches and import calls all count)
	QueriesPerMinute int `yaml:"queries_per_minute"`

	// UpstreamImportsPerHour limits imports per remote status host
	UpstreamImportsPerHour int `yaml:"upstream_imports_per_hour"`

	// ImportsPerHour limits imports into the local server overall
	ImportsPerHour int `yaml:"imports_per_hour"`

	// PassesPerHour limits how often a full pass over all hashtags runs
	PassesPerHour int `yaml:"passes_per_hour"`

	// PassDelay is the fixed sleep between passes, before the cadence
	// limiter is consulted
	PassDelay Duration `yaml:"pass_delay"`
}

// HTTPConfig holds settings for the underlying network client
type HTTPConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Rates: RatesConfig{
			QueriesPerMinute:       1,
			UpstreamImportsPerHour: 5,
			ImportsPerHour:         20,
			PassesPerHour:          4,
			PassDelay:              Duration(5 * time.Minute),
		},
		HTTP: HTTPConfig{
			Timeout: Duration(20 * time.Second),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given file (YAML), layered on top of
// the defaults, then applies environment variable overrides. An empty path
// falls back to the default search locations.
func Load(path string) (*Config, error) {
	// Load .env if present; missing file is fine
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the preferred location for the config file
func DefaultPath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return "config.yaml"
}

// findConfigFile returns the first existing config file among the search
// locations, or empty if none exists
func findConfigFile() string {
	candidates := []string{}
	if dir := configDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "config.yaml"))
	}
	candidates = append(candidates, "config.yaml")

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func configDir() string {
	if dir := os.Getenv("TAGMIRROR_CONFIG_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tagmirror")
	}
	return ""
}

// LoadFromEnv applies environment variable overrides
func (c *Config) LoadFromEnv() {
	if server := os.Getenv("TAGMIRROR_SERVER"); server != "" {
		c.Server = server
	}
	if token := os.Getenv("TAGMIRROR_TOKEN"); token != "" {
		c.Auth.Token = token
	}
	if clientID := os.Getenv("TAGMIRROR_CLIENT_ID"); clientID != "" {
		c.Auth.ClientID = clientID
	}
	if clientSecret := os.Getenv("TAGMIRROR_CLIENT_SECRET"); clientSecret != "" {
		c.Auth.ClientSecret = clientSecret
	}
	if level := os.Getenv("TAGMIRROR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server == "" {
		return errors.New("server is required")
	}
	if len(c.Hashtags) == 0 {
		return errors.New("at least one hashtag is required")
	}
	for i, tag := range c.Hashtags {
		if tag.Name == "" {
			return fmt.Errorf("hashtag %d: name is required", i)
		}
		if len(tag.Sources) == 0 {
			return fmt.Errorf("hashtag %q: at least one source server is required", tag.Name)
		}
		for _, source := range tag.Sources {
			if source == "" {
				return fmt.Errorf("hashtag %q: empty source server", tag.Name)
			}
		}
	}

	r := c.Rates
	if r.QueriesPerMinute <= 0 {
		return errors.New("rates: queries_per_minute must be positive")
	}
	if r.UpstreamImportsPerHour <= 0 {
		return errors.New("rates: upstream_imports_per_hour must be positive")
	}
	if r.ImportsPerHour <= 0 {
		return errors.New("rates: imports_per_hour must be positive")
	}
	if r.PassesPerHour <= 0 {
		return errors.New("rates: passes_per_hour must be positive")
	}
	if r.PassDelay < 0 {
		return errors.New("rates: pass_delay must not be negative")
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("http: timeout must be positive")
	}
	return nil
}

// Redacted returns a copy safe for printing, with secrets masked
func (c *Config) Redacted() *Config {
	out := *c
	if out.Auth.Token != "" {
		out.Auth.Token = "<redacted>"
	}
	if out.Auth.ClientSecret != "" {
		out.Auth.ClientSecret = "<redacted>"
	}
	return &out
}
