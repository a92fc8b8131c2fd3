package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from the config file.
const (
	EnvCloudName    = "IMGMATCH_CLOUD_NAME"
	EnvUploadPreset = "IMGMATCH_UPLOAD_PRESET"
	EnvMatcherURL   = "IMGMATCH_MATCHER_URL"
	EnvDatabasePath = "IMGMATCH_DATABASE_PATH"
	EnvServerPort   = "IMGMATCH_SERVER_PORT"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Cloudinary CloudinaryConfig `toml:"cloudinary"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Database   DatabaseConfig   `toml:"database"`
	Gallery    GalleryConfig    `toml:"gallery"`
	Download   DownloadConfig   `toml:"download"`
	Server     ServerConfig     `toml:"server"`
}

// CloudinaryConfig contains the hosted upload capability identifiers.
type CloudinaryConfig struct {
	CloudName    string `toml:"cloud_name"`
	UploadPreset string `toml:"upload_preset"`
	BaseURL      string `toml:"base_url"`
}

// MatcherConfig describes the remote match endpoint.
type MatcherConfig struct {
	BaseURL string      `toml:"base_url"`
	Path    string      `toml:"path"`
	Timeout string      `toml:"timeout"`
	OAuth   OAuthConfig `toml:"oauth"`
}

// OAuthConfig contains optional client credentials for a gateway in front of the matcher.
type OAuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	TokenURL     string   `toml:"token_url"`
	Scopes       []string `toml:"scopes"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// GalleryConfig controls the persisted gallery list.
type GalleryConfig struct {
	StorageKey   string `toml:"storage_key"`
	PollInterval string `toml:"poll_interval"`
}

// DownloadConfig controls download-all.
type DownloadConfig struct {
	Dir       string  `toml:"dir"`
	RateLimit float64 `toml:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile (if it exists) into the process environment and applies IMGMATCH_* overrides to c.
//
// Variables already set in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvCloudName); v != "" {
		c.Cloudinary.CloudName = v
	}
	if v := os.Getenv(EnvUploadPreset); v != "" {
		c.Cloudinary.UploadPreset = v
	}
	if v := os.Getenv(EnvMatcherURL); v != "" {
		c.Matcher.BaseURL = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvServerPort, v)
		}
		c.Server.Port = port
	}

	return c.Validate()
}

// Validate checks duration fields so later accessors cannot fail.
func (c *Config) Validate() error {
	if _, err := parseDuration(c.Matcher.Timeout); err != nil {
		return fmt.Errorf("%w: matcher.timeout: %v", ErrInvalidConfig, err)
	}
	if _, err := parseDuration(c.Gallery.PollInterval); err != nil {
		return fmt.Errorf("%w: gallery.poll_interval: %v", ErrInvalidConfig, err)
	}
	if c.Gallery.StorageKey == "" {
		return fmt.Errorf("%w: gallery.storage_key is empty", ErrInvalidConfig)
	}
	return nil
}

// MatchTimeout returns the matcher request timeout; zero means none.
func (c *Config) MatchTimeout() time.Duration {
	d, _ := parseDuration(c.Matcher.Timeout)
	return d
}

// PollInterval returns how often the gallery store checks for external changes.
func (c *Config) PollInterval() time.Duration {
	d, _ := parseDuration(c.Gallery.PollInterval)
	if d <= 0 {
		return time.Second
	}
	return d
}

// Addr returns the host:port the web server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
