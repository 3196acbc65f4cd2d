// Package config loads server configuration layered, in increasing
// priority: built-in defaults, the LSP client's initializationOptions
// object, and finally the closest ".testingls.toml"/"testingls.toml"
// found by walking up from the workspace root, which wins over
// initializationOptions when both set the same key.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames are searched for, in priority order, at each directory
// level while walking up from the workspace root.
var ConfigFileNames = []string{".testingls.toml", "testingls.toml"}

// AdapterSettings is one adapter's entry under the "adapters" config
// table.
type AdapterSettings struct {
	RootDir      string            `koanf:"root-dir"`
	Path         string            `koanf:"path"`
	ExtraArgs    []string          `koanf:"extra-args"`
	Envs         map[string]string `koanf:"envs"`
	Include      []string          `koanf:"include"`
	Exclude      []string          `koanf:"exclude"`
	WorkspaceDir string            `koanf:"workspace-dir"`
}

// Config is the complete server configuration.
type Config struct {
	// Adapters maps an adapter id ("go", "cargo-test", "jest", ...) to
	// its settings.
	Adapters map[string]AdapterSettings `koanf:"adapters"`

	// LogLevel controls the verbosity of the server's own log output.
	// One of "debug", "info", "warn", "error".
	LogLevel string `koanf:"log-level"`

	// ConfigFile is the path to the config file that was loaded, if any.
	// This is metadata, not loaded from config.
	ConfigFile string `koanf:"-"`
}

// Default returns the built-in configuration: no adapters configured
// (the client must supply at least one via initializationOptions or a
// config file for the server to do anything) and info-level logging.
func Default() *Config {
	return &Config{
		Adapters: map[string]AdapterSettings{},
		LogLevel: "info",
	}
}

// Load discovers the closest config file starting from workspaceRoot,
// loads built-in defaults and the file (if found), then merges
// initializationOptions on top (initializationOptions may be nil).
func Load(workspaceRoot string, initializationOptions any) (*Config, error) {
	return loadWithConfigPath(Discover(workspaceRoot), initializationOptions)
}

// LoadFromFile loads configuration from a specific config file path,
// skipping file discovery.
func LoadFromFile(configPath string, initializationOptions any) (*Config, error) {
	return loadWithConfigPath(configPath, initializationOptions)
}

func loadWithConfigPath(configPath string, initializationOptions any) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults.
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. initializationOptions, supplied by the LSP client at connect
	// time.
	if m, ok := initializationOptions.(map[string]any); ok && len(m) > 0 {
		if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
			return nil, err
		}
	}

	// 3. Config file, if one was found. Loaded last so it wins over
	// initializationOptions when both set the same key.
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

// Discover walks up from workspaceRoot looking for a config file at
// each directory level. The first level at which a file is found wins;
// levels are never merged.
func Discover(workspaceRoot string) string {
	absPath, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return ""
	}

	dir := absPath
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
