package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	OutputJSON = "json"
	OutputYAML = "yaml"
)

type Config struct {
	LogLevel     string        `toml:"log_level"`
	Output       string        `toml:"output"`
	StrictExit   bool          `toml:"strict_exit"`
	PersonasFile string        `toml:"personas_file"`
	Store        StoreConfig   `toml:"store"`
	Metrics      MetricsConfig `toml:"metrics"`
	Path         string        `toml:"-"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type MetricsConfig struct {
	Seed uint64 `toml:"seed"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Output:   OutputJSON,
		Store: StoreConfig{
			Driver: DriverMemory,
			Path:   "data/agentcrew.db",
		},
	}
}

// Load reads the TOML file at path on top of Default. An empty path means
// ~/.agentcrew/config.toml, which may be absent.
func Load(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	resolved := path
	if !explicit {
		resolved = defaultConfigPath()
	}
	resolved, err := expandHome(resolved)
	if err != nil {
		return Config{}, err
	}
	resolved = filepath.Clean(resolved)

	cfg := Default()
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config file %s: %w", resolved, err)
	}
	if _, err := toml.Decode(string(bytes), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}
	cfg.Path = resolved
	if cfg.PersonasFile != "" {
		if cfg.PersonasFile, err = expandHome(cfg.PersonasFile); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Output {
	case OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.Store.Driver == DriverSQLite && strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path is required for the sqlite driver")
	}
	return nil
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	trimmed := strings.TrimPrefix(p, "~")
	trimmed = strings.TrimPrefix(trimmed, "\\")
	trimmed = strings.TrimPrefix(trimmed, "/")
	return filepath.Join(home, trimmed), nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentcrew/config.toml"
	}
	return filepath.Join(home, ".agentcrew", "config.toml")
}
