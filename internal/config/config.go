// Package config loads vkmsctl settings from a TOML file.
//
// The default file is $XDG_CONFIG_HOME/vkmsctl/config.toml, falling back to
// ~/.config/vkmsctl/config.toml. Only keys present in the file override the
// built-in defaults; command-line flags override both.
//
//	configfs_path = "/sys/kernel/config"
//	encoding      = "kernel"
//	verbose       = false
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vkmsctl/pkg/configfs"
	"github.com/matzehuels/vkmsctl/pkg/errors"
)

// Config holds the effective settings.
type Config struct {
	ConfigfsPath string `toml:"configfs_path" json:"configfs_path"`
	Encoding     string `toml:"encoding" json:"encoding"`
	Verbose      bool   `toml:"verbose" json:"verbose"`

	// Source is the file the settings were loaded from, or "" for defaults.
	Source string `toml:"-" json:"source,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ConfigfsPath: configfs.DefaultRoot,
		Encoding:     configfs.EncodingKernel,
	}
}

// DefaultPath returns the default location of the config file.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "vkmsctl", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vkmsctl", "config.toml")
}

type fileConfig struct {
	ConfigfsPath string `toml:"configfs_path"`
	Encoding     string `toml:"encoding"`
	Verbose      bool   `toml:"verbose"`
}

// Load reads settings from path. An empty path loads [DefaultPath] and
// silently falls back to the defaults when that file does not exist; an
// explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return Default(), nil
		}
	}

	cfg, err := loadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config").WithPath(path)
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		return Config{}, err
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("configfs_path") {
		p := strings.TrimSpace(raw.ConfigfsPath)
		if p == "" {
			return Config{}, fmt.Errorf("configfs_path cannot be empty")
		}
		cfg.ConfigfsPath = p
	}

	if meta.IsDefined("encoding") {
		enc := strings.ToLower(strings.TrimSpace(raw.Encoding))
		if _, err := configfs.CodecByName(enc); err != nil {
			return Config{}, err
		}
		cfg.Encoding = enc
	}

	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}

	cfg.Source = path
	return cfg, nil
}
