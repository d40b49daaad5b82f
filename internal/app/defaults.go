package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns the config file location and the data directory.
// Environment variables win over the home directory defaults:
//   - W4_CONFIG_PATH: config file (default ~/.config/w4.toml)
//   - W4_HOME: data directory (default ~/.local/share/w4)
//
// Paths under the data directory are derived by config.NewConfig.
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome("W4_CONFIG_PATH", ".config", "w4.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome("W4_HOME", ".local", "share", "w4")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
	}, nil
}

// envOrHome returns $env when set, else the path elems joined under the
// user's home directory.
func envOrHome(env string, elems ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elems...)...), nil
}
