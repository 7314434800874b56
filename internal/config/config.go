package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"imagepick/internal/domain"
)

// FileName is the per-directory config file looked up next to the images
const FileName = ".imagepick.toml"

// ErrConfigNotFound is returned by LoadFromPath when the file does not exist
var ErrConfigNotFound = errors.New("config file not found")

// Config represents the application configuration
type Config struct {
	Version    int                  `toml:"version"`
	RootDir    string               `toml:"root_dir"`
	LogLevel   string               `toml:"log_level"`
	Picker     domain.Configuration `toml:"picker"`
	Index      IndexSettings        `toml:"index"`
	UISettings UISettings           `toml:"ui"`
}

// IndexSettings controls how the media index is built
type IndexSettings struct {
	Version    int  `toml:"version"` // 1 indexes everything, 2 scopes while scanning
	SkipHidden bool `toml:"skip_hidden"`
	MaxDepth   int  `toml:"max_depth"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowBucketCounts bool `toml:"show_bucket_counts"`
	PrintJSON        bool `toml:"print_json"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service backed by the user config directory
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return &configService{
		filePath: filepath.Join(configDir, "imagepick", "config.toml"),
	}
}

// NewConfigServiceAt creates a config service whose Load and Save use path
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// Load loads the configuration from file, falling back to defaults when absent
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, ErrConfigNotFound) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing from the
// file keep their default values; unknown keys are rejected.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with IMAGEPICK_* environment variables
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("IMAGEPICK_ROOT_DIR"); v != "" {
		cfg.RootDir = v
	}
	if v := os.Getenv("IMAGEPICK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("IMAGEPICK_FETCH_FAILURE"); v != "" {
		cfg.Picker.FetchFailure = domain.FailurePolicy(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"IMAGEPICK_QUALITY", &cfg.Picker.Quality},
		{"IMAGEPICK_MAX_SELECTION", &cfg.Picker.MaxSelection},
		{"IMAGEPICK_MAX_DIMENSION", &cfg.Picker.MaxDimension},
		{"IMAGEPICK_COMPRESS_WORKERS", &cfg.Picker.CompressWorkers},
		{"IMAGEPICK_INDEX_VERSION", &cfg.Index.Version},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", e.key, err)
		}
		*e.dst = n
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Version:  1,
		RootDir:  filepath.Join(homeDir, "Pictures"),
		LogLevel: "info",
		Picker:   domain.DefaultConfiguration(),
		Index: IndexSettings{
			Version:    2,
			SkipHidden: true,
			MaxDepth:   8,
		},
		UISettings: UISettings{
			ShowBucketCounts: true,
		},
	}
}
