package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/kutbudev/invctl/internal/auth"
	"github.com/kutbudev/invctl/internal/config"
	"github.com/urfave/cli/v2"
)

// NewConfigCommand shows and edits the config file.
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change CLI settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the resolved settings",
				Action: func(c *cli.Context) error {
					settings, err := config.LoadSettings()
					if err != nil {
						return err
					}
					path, _ := config.GetConfigPath()
					tbl := uitable.New()
					tbl.AddRow("config file", path)
					tbl.AddRow("api_url", settings.APIURL)
					tbl.AddRow("http_timeout", settings.HTTPTimeout)
					tbl.AddRow("log_level", settings.LogLevel)
					tbl.AddRow("no_color", settings.NoColor)
					tbl.AddRow("token storage", auth.StorageMode())
					fmt.Println(tbl)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Set a value (api_url, http_timeout, no_color)",
				ArgsUsage: "[key] [value]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return fmt.Errorf("usage: invctl config set <key> <value>")
					}
					key := strings.ToLower(c.Args().Get(0))
					value := strings.TrimSpace(c.Args().Get(1))
					apply, err := configSetter(key, value)
					if err != nil {
						return err
					}
					if err := config.Update(apply); err != nil {
						return fmt.Errorf("could not save config: %w", err)
					}
					fmt.Printf("✅ %s updated\n", key)
					return nil
				},
			},
		},
	}
}

func configSetter(key, value string) (func(*config.Config), error) {
	switch key {
	case "api_url", "api-url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return nil, fmt.Errorf("api_url must start with http:// or https://")
		}
		return func(cfg *config.Config) { cfg.APIURL = strings.TrimRight(value, "/") }, nil
	case "http_timeout", "http-timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("http_timeout must be a positive number of seconds")
		}
		return func(cfg *config.Config) { cfg.HTTPTimeoutSeconds = n }, nil
	case "no_color", "no-color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("no_color must be true or false")
		}
		return func(cfg *config.Config) { cfg.NoColor = b }, nil
	}
	return nil, fmt.Errorf("unknown setting %q", key)
}
