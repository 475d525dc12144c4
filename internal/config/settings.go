package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration: file values overridden by the
// environment (INVCTL_*), which may come from a .env file in the working dir.
type Settings struct {
	APIURL      string        `mapstructure:"api_url"`
	Token       string        `mapstructure:"token"`
	HTTPTimeout time.Duration `mapstructure:"-"`
	LogLevel    string        `mapstructure:"log_level"`
	NoColor     bool          `mapstructure:"no_color"`

	TimeoutSeconds int `mapstructure:"http_timeout"`
}

// envFiles are tried in order; the first that loads wins.
var envFiles = []string{".env", ".env.local"}

// LoadSettings resolves Settings from the config file and the environment.
func LoadSettings() (*Settings, error) {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INVCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	timeout := cfg.HTTPTimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultHTTPTimeoutSeconds
	}

	v.SetDefault("api_url", apiURL)
	v.SetDefault("token", "")
	v.SetDefault("http_timeout", timeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("no_color", cfg.NoColor)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	s.APIURL = strings.TrimRight(strings.TrimSpace(s.APIURL), "/")
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	s.HTTPTimeout = time.Duration(s.TimeoutSeconds) * time.Second
	return &s, nil
}
