package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/kutbudev/invctl/internal/api"
	"github.com/kutbudev/invctl/internal/auth"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func NewSetupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Authenticate against the inventory backend",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "account email",
					},
				},
				Action: func(c *cli.Context) error {
					return handleUserLogin(c)
				},
			},
			{
				Name:  "logout",
				Usage: "Forget the stored access token",
				Action: func(c *cli.Context) error {
					if err := auth.ClearToken(); err != nil {
						return fmt.Errorf("could not clear token: %w", err)
					}
					fmt.Println("✅ Logged out")
					return nil
				},
			},
			{
				Name:      "token",
				Usage:     "Store an access token directly",
				ArgsUsage: "[token]",
				Action: func(c *cli.Context) error {
					return handleManualToken(c)
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the logged in account",
				Action: func(c *cli.Context) error {
					user, err := api.NewClient().Me(c.Context)
					if err != nil {
						return failed("loading account", err)
					}
					name := user.FullName
					if name == "" {
						name = user.Email
					}
					fmt.Printf("%s <%s> (%s)\n", name, user.Email, user.Role)
					fmt.Printf("Token storage: %s\n", auth.StorageMode())
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowCommandHelp(c, "setup")
		},
	}
}

func handleUserLogin(c *cli.Context) error {
	email := strings.TrimSpace(c.String("email"))
	if email == "" {
		if err := survey.AskOne(&survey.Input{Message: "Email:"}, &email, survey.WithValidator(survey.Required)); err != nil {
			return fmt.Errorf("could not read email: %w", err)
		}
		email = strings.TrimSpace(email)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("could not read password: %w", err)
	}

	resp, err := api.NewClient().Login(c.Context, email, password)
	if err != nil {
		return failed("logging in", err)
	}
	if err := auth.SaveToken(resp.AccessToken); err != nil {
		return fmt.Errorf("could not save token: %w", err)
	}

	fmt.Println("✅ Login successful!")
	fmt.Printf("Signed in as %s (%s), token stored in %s\n", resp.User.Email, resp.User.Role, auth.StorageMode())
	return nil
}

func handleManualToken(c *cli.Context) error {
	token := strings.TrimSpace(c.Args().First())
	if token == "" {
		var err error
		token, err = readPassword("Access token: ")
		if err != nil {
			return fmt.Errorf("could not read token: %w", err)
		}
	}
	if err := auth.SaveToken(token); err != nil {
		return fmt.Errorf("could not save token: %w", err)
	}
	fmt.Println("✅ Token saved successfully!")
	return nil
}

// readPassword reads a secret without echo when stdin is a terminal.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
