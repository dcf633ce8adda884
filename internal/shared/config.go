package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix prefixes every environment variable that overrides the config file.
const EnvPrefix = "SQUADIFY_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Collab   CollabConfig   `toml:"collab"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// CollabConfig contains the tunables of the collab builder.
type CollabConfig struct {
	MaxCollabSize   int     `toml:"max_collab_size"`
	MinFrequency    int     `toml:"min_frequency"`
	MinShareFactor  float64 `toml:"min_share_factor"`
	ShareBelowFloor bool    `toml:"share_below_floor"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process environment.
//
// A missing file is not an error. Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with SQUADIFY_* variables found through lookup.
//
// Pass [os.LookupEnv] in production; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "MAX_COLLAB_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_COLLAB_SIZE=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Collab.MaxCollabSize = n
	}
	if v, ok := lookup(EnvPrefix + "MIN_FREQUENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sMIN_FREQUENCY=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Collab.MinFrequency = n
	}
	if v, ok := lookup(EnvPrefix + "MIN_SHARE_FACTOR"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMIN_SHARE_FACTOR=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Collab.MinShareFactor = f
	}
	if v, ok := lookup(EnvPrefix + "SHARE_BELOW_FLOOR"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sSHARE_BELOW_FLOOR=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Collab.ShareBelowFloor = b
	}
	if v, ok := lookup(EnvPrefix + "DATABASE_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}
