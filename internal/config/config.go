package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = ".invctl"
	configFileName = "config.json"

	// DefaultAPIURL is used when neither the file nor the environment sets one.
	DefaultAPIURL = "http://127.0.0.1:8000"
	// DefaultHTTPTimeoutSeconds is the http.Client timeout when none is configured.
	DefaultHTTPTimeoutSeconds = 30
)

// Config is the persisted client configuration (~/.invctl/config.json).
type Config struct {
	APIURL             string `json:"api_url,omitempty"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds,omitempty"`
	NoColor            bool   `json:"no_color,omitempty"`

	// Remembered choices of the issue form
	LastStatusID    int    `json:"last_status_id,omitempty"`
	LastResponsible string `json:"last_responsible,omitempty"`
}

// Dir returns the configuration directory. INVCTL_CONFIG_DIR overrides ~/.invctl.
func Dir() (string, error) {
	if dir := os.Getenv("INVCTL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfig loads the config file. A missing file yields an empty config.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure the directory exists
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Update loads the config, applies fn and saves it back. A config that
// cannot be read is left untouched and its error returned.
func Update(fn func(cfg *Config)) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	fn(cfg)
	return SaveConfig(cfg)
}
