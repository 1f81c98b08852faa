// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults mirror the web client's behavior.
const (
	DefaultAPIURL         = "http://localhost:4000"
	DefaultPageSize       = 12
	DefaultInitialCredits = 100
	DefaultRequestTimeout = 30 * time.Second
	DefaultStageDwell     = 2 * time.Second
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
	DefaultShortlistTTL   = time.Minute
	DefaultLogLevel       = "info"
	MaxPageSize           = 100
)

// Environment variables that override file values.
const (
	EnvAPIURL   = "RECRUIT_API_URL"
	EnvAPIToken = "RECRUIT_API_TOKEN"
	EnvLogLevel = "RECRUIT_LOG_LEVEL"
	EnvLogFile  = "RECRUIT_LOG_FILE"
)

// DefaultStages are the processing stage labels shown while a search is in flight.
var DefaultStages = []string{
	"Fetching profiles",
	"Semantic search and LLM match",
	"Ranking and scoring",
	"Preparing insights",
}

// Duration is a time.Duration that reads from "2s"-style strings in JSON and TOML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the CLI configuration that can be loaded from a JSON or TOML file.
// All fields are optional; missing values use defaults or come from CLI flags.
type Config struct {
	// API
	APIURL          string   `json:"api_url,omitempty" toml:"api_url,omitempty"`
	APIToken        string   `json:"api_token,omitempty" toml:"api_token,omitempty"`
	RequestTimeout  Duration `json:"request_timeout,omitempty" toml:"request_timeout,omitempty"`
	RateLimitRPS    float64  `json:"rate_limit_rps,omitempty" toml:"rate_limit_rps,omitempty"`
	RateLimitBurst  int      `json:"rate_limit_burst,omitempty" toml:"rate_limit_burst,omitempty"`
	StrictContracts bool     `json:"strict_contracts,omitempty" toml:"strict_contracts,omitempty"` // Validate responses against schemas

	// Session
	PageSize       int      `json:"page_size,omitempty" toml:"page_size,omitempty"`
	InitialCredits int      `json:"initial_credits,omitempty" toml:"initial_credits,omitempty"`
	StageDwell     Duration `json:"stage_dwell,omitempty" toml:"stage_dwell,omitempty"`
	Stages         []string `json:"stages,omitempty" toml:"stages,omitempty"`
	ShortlistTTL   Duration `json:"shortlist_ttl,omitempty" toml:"shortlist_ttl,omitempty"`

	// Logging
	LogFile  string `json:"log_file,omitempty" toml:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty" toml:"log_level,omitempty"`
	Verbose  bool   `json:"verbose,omitempty" toml:"verbose,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: Duration(DefaultRequestTimeout),
		RateLimitRPS:   DefaultRateLimitRPS,
		RateLimitBurst: DefaultRateLimitBurst,
		PageSize:       DefaultPageSize,
		InitialCredits: DefaultInitialCredits,
		StageDwell:     Duration(DefaultStageDwell),
		Stages:         append([]string(nil), DefaultStages...),
		ShortlistTTL:   Duration(DefaultShortlistTTL),
		LogLevel:       DefaultLogLevel,
	}
}

// LoadConfig loads configuration from a JSON or TOML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'api_url' is not a valid URL: %q", c.APIURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config error: 'api_url' must use http or https")
		}
	}

	if c.PageSize < 0 || c.PageSize > MaxPageSize {
		return fmt.Errorf("config error: 'page_size' must be between 1 and %d", MaxPageSize)
	}
	if c.InitialCredits < 0 {
		return fmt.Errorf("config error: 'initial_credits' must be non-negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config error: 'request_timeout' must be non-negative")
	}
	if c.StageDwell < 0 {
		return fmt.Errorf("config error: 'stage_dwell' must be non-negative")
	}
	if c.ShortlistTTL < 0 {
		return fmt.Errorf("config error: 'shortlist_ttl' must be non-negative")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	for i, stage := range c.Stages {
		if strings.TrimSpace(stage) == "" {
			return fmt.Errorf("config error: stage %d has an empty label", i+1)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// This is used to apply config file values over built-in defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.APIToken == "" {
		result.APIToken = defaults.APIToken
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Numeric fields: use default if zero
	if result.PageSize == 0 {
		result.PageSize = defaults.PageSize
	}
	if result.InitialCredits == 0 {
		result.InitialCredits = defaults.InitialCredits
	}
	if result.RequestTimeout == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.StageDwell == 0 {
		result.StageDwell = defaults.StageDwell
	}
	if result.ShortlistTTL == 0 {
		result.ShortlistTTL = defaults.ShortlistTTL
	}
	if result.RateLimitRPS == 0 {
		result.RateLimitRPS = defaults.RateLimitRPS
	}
	if result.RateLimitBurst == 0 {
		result.RateLimitBurst = defaults.RateLimitBurst
	}

	if len(result.Stages) == 0 {
		result.Stages = append([]string(nil), defaults.Stages...)
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
