// Package settings resolves iconprep's configuration from defaults, an
// optional JSON file, and the environment. Command-line flags are layered on
// top by the caller.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FileName is the project-local settings file looked up in the working directory.
const FileName = "iconprep.json"

// EnvPrefix prefixes every environment variable iconprep reads.
const EnvPrefix = "ICONPREP_"

// ErrNoCommand is returned when no build command is configured.
var ErrNoCommand = errors.New("no build command configured")

// Config is the resolved configuration.
type Config struct {
	WorkDir  string   `json:"work_dir"  env:"WORK_DIR"`
	IconDir  string   `json:"icon_dir"  env:"ICON_DIR"`
	IconName string   `json:"icon_name" env:"ICON_NAME"`
	LogFile  string   `json:"log_file"  env:"LOG_FILE"`
	Command  []string `json:"command"   env:"COMMAND" envSeparator:" "`
	Verify   bool     `json:"verify"    env:"VERIFY"`
	Debug    bool     `json:"debug"     env:"DEBUG"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		WorkDir:  ".",
		IconDir:  "icons",
		IconName: "icon.ico",
	}
}

// LoadFile merges the JSON settings file at path into cfg.
// Returns false if the file doesn't exist (not an error).
func LoadFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read settings file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("parse settings: %w", err)
	}
	return true, nil
}

// FromEnv overrides cfg with ICONPREP_* variables. A nil environ means the
// process environment.
func FromEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load resolves defaults, then the settings file, then the environment.
// An empty path means FileName inside the working directory, which may itself
// come from ICONPREP_WORK_DIR.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		probe := cfg
		if err := FromEnv(&probe, environ); err != nil {
			return cfg, err
		}
		path = filepath.Join(probe.WorkDir, FileName)
	}

	if _, err := LoadFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := FromEnv(&cfg, environ); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot produce a build.
func (c *Config) Validate() error {
	if c.IconDir == "" {
		return errors.New("icon directory is empty")
	}
	if c.IconName == "" {
		return errors.New("icon file name is empty")
	}
	if len(c.Command) == 0 || c.Command[0] == "" {
		return ErrNoCommand
	}
	return nil
}
