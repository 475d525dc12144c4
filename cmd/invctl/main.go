package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/kutbudev/invctl/internal/cli/commands"
	"github.com/kutbudev/invctl/internal/config"
	"github.com/kutbudev/invctl/internal/logging"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"
)

// Version will be set during build with ldflags
var Version = "0.4.0"

func main() {
	app := &cli.App{
		Name:    "invctl",
		Usage:   "Inventory admin client: tabs, boxes, items and their tags",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log requests and tag refreshes to stderr",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"INVCTL_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			settings, err := config.LoadSettings()
			if err != nil {
				settings = &config.Settings{}
			}
			level := c.String("log-level")
			if level == "" {
				level = settings.LogLevel
			}
			if c.Bool("debug") {
				level = "debug"
			}
			if err := logging.Init(level); err != nil {
				return err
			}
			if settings.NoColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logging.Sync()
			return nil
		},
		Commands: []*cli.Command{
			// Tags
			commands.NewTagCommand(),

			// Inventory
			commands.NewTabCommand(),
			commands.NewBoxCommand(),
			commands.NewItemCommand(),

			// Issuance
			commands.NewStatusCommand(),
			commands.NewIssueCommand(),

			// Meta
			commands.NewSetupCommand(),
			commands.NewUserCommand(),
			commands.NewConfigCommand(),
			commands.NewMcpCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
