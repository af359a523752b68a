package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	Variety    VarietyConfig    `yaml:"variety"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Persona    PersonaConfig    `yaml:"persona"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// DeleteRate is the number of delete requests allowed per minute.
	DeleteRate int `yaml:"delete_rate"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GenerationConfig contains generation service and retry settings.
type GenerationConfig struct {
	Provider      string   `yaml:"provider"`
	Model         string   `yaml:"model"`
	BaseURL       string   `yaml:"base_url"`
	Temperature   float64  `yaml:"temperature"`
	MaxRetries    int      `yaml:"max_retries"`
	CourtesyDelay Duration `yaml:"courtesy_delay"`
	OpenAIKey     string   `yaml:"-"` // env-only, never in YAML
	GeminiKey     string   `yaml:"-"` // env-only, never in YAML
}

// APIKey returns the key for the configured provider.
func (g GenerationConfig) APIKey() string {
	if g.Provider == ProviderGemini {
		return g.GeminiKey
	}
	return g.OpenAIKey
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// VarietyConfig contains the detail repetition thresholds.
type VarietyConfig struct {
	ViolationAbove int `yaml:"violation_above"`
	WarnAt         int `yaml:"warn_at"`
}

// CatalogConfig points at an optional pattern catalog override file.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ArtifactsConfig contains S3-compatible storage settings for exported batches.
// An empty bucket disables uploads.
type ArtifactsConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	Prefix    string   `yaml:"prefix"`
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
}

// PersonaConfig is the author identity written with every stored post.
type PersonaConfig struct {
	Author string `yaml:"author"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg, err := loadLayers()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLocal loads configuration like Load but does not require secrets.
// Used by commands that neither serve the API nor call a generation service.
func LoadLocal() (*Config, error) {
	cfg, err := loadLayers()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateSettings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLayers() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("VOICES_CONFIG_PATH", "config/voices.yaml")

	if err := readYAML(cfg, configPath, true); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from path, which must exist, then applies
// env overrides and full validation.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()
	if err := readYAML(cfg, path, false); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(10 * time.Minute),
			ShutdownTimeout: Duration(15 * time.Second),
			DeleteRate:      10,
		},
		Database: DatabaseConfig{
			Path: "data/voices.db",
		},
		Generation: GenerationConfig{
			Provider:      ProviderOpenAI,
			Temperature:   0.9,
			MaxRetries:    3,
			CourtesyDelay: Duration(2 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Variety: VarietyConfig{
			ViolationAbove: 2,
			WarnAt:         2,
		},
		Artifacts: ArtifactsConfig{
			Region:    "us-east-1",
			Prefix:    "batches",
			URLExpiry: Duration(15 * time.Minute),
		},
		Persona: PersonaConfig{
			Author: "community-voices",
		},
	}
}

// readYAML decodes the file at path over cfg. With missingOK a missing file
// leaves cfg unchanged.
func readYAML(cfg *Config, path string, missingOK bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && missingOK {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variables over file values. Unset,
// empty and unparseable variables leave the current value in place.
func applyEnvOverrides(cfg *Config) {
	envInt(&cfg.Server.Port, "VOICES_PORT")
	envDuration(&cfg.Server.ReadTimeout, "VOICES_READ_TIMEOUT")
	envDuration(&cfg.Server.WriteTimeout, "VOICES_WRITE_TIMEOUT")
	envDuration(&cfg.Server.ShutdownTimeout, "VOICES_SHUTDOWN_TIMEOUT")
	envInt(&cfg.Server.DeleteRate, "VOICES_DELETE_RATE")

	envString(&cfg.Database.Path, "VOICES_DB_PATH")

	// Provider keys use the providers' conventional names.
	envString(&cfg.Generation.OpenAIKey, "OPENAI_API_KEY")
	envString(&cfg.Generation.GeminiKey, "GEMINI_API_KEY")
	envString(&cfg.Generation.Provider, "VOICES_PROVIDER")
	envString(&cfg.Generation.Model, "VOICES_MODEL")
	envString(&cfg.Generation.BaseURL, "VOICES_BASE_URL")
	envFloat(&cfg.Generation.Temperature, "VOICES_TEMPERATURE")
	envInt(&cfg.Generation.MaxRetries, "VOICES_MAX_RETRIES")
	envDuration(&cfg.Generation.CourtesyDelay, "VOICES_COURTESY_DELAY")

	envString(&cfg.Auth.APIKey, "VOICES_API_KEY")

	envString(&cfg.Log.Level, "VOICES_LOG_LEVEL")
	envString(&cfg.Log.Format, "VOICES_LOG_FORMAT")

	envInt(&cfg.Variety.ViolationAbove, "VOICES_VARIETY_VIOLATION_ABOVE")
	envInt(&cfg.Variety.WarnAt, "VOICES_VARIETY_WARN_AT")

	envString(&cfg.Catalog.Path, "VOICES_CATALOG_PATH")

	envString(&cfg.Artifacts.Bucket, "VOICES_ARTIFACT_BUCKET")
	envString(&cfg.Artifacts.Endpoint, "VOICES_S3_ENDPOINT")
	envString(&cfg.Artifacts.Region, "VOICES_S3_REGION")
	envString(&cfg.Artifacts.AccessKey, "VOICES_S3_ACCESS_KEY")
	envString(&cfg.Artifacts.SecretKey, "VOICES_S3_SECRET_KEY")
	if v := os.Getenv("VOICES_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Artifacts.UseSSL = &useSSL
	}

	envString(&cfg.Persona.Author, "VOICES_AUTHOR")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

func envFloat(dst *float64, key string) {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*dst = f
	}
}

func envDuration(dst *Duration, key string) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = Duration(d)
	}
}

// validate checks structural settings always and secrets outside dev mode.
// In dev mode (VOICES_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if err := c.validateSettings(); err != nil {
		return err
	}

	if os.Getenv("VOICES_DEV_MODE") == "true" {
		return nil
	}

	if c.Generation.APIKey() == "" {
		if c.Generation.Provider == ProviderGemini {
			return errors.New("GEMINI_API_KEY is required")
		}
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.Auth.APIKey == "" {
		return errors.New("VOICES_API_KEY is required")
	}
	return nil
}

func (c *Config) validateSettings() error {
	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("generation.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.Generation.Provider)
	}
	if c.Generation.MaxRetries < 1 {
		return fmt.Errorf("generation.max_retries must be at least 1, got %d", c.Generation.MaxRetries)
	}
	if c.Generation.CourtesyDelay < 0 {
		return errors.New("generation.courtesy_delay must not be negative")
	}
	if c.Variety.ViolationAbove < 1 || c.Variety.WarnAt < 2 {
		return fmt.Errorf("variety thresholds out of range: violation_above=%d warn_at=%d",
			c.Variety.ViolationAbove, c.Variety.WarnAt)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
