package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kutbudev/invctl/internal/api"
	"github.com/kutbudev/invctl/internal/app"
	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/logging"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Helper functions shared across commands

// newClient builds a client whose activity indicator reports to the debug log.
func newClient() *api.Client {
	activity := api.NewActivityCounter(func(state api.ActivityState) {
		logging.L().Debug("api activity", zap.String("state", string(state)))
	})
	return api.NewClient(api.WithActivity(activity))
}

// newSession builds a session that prints notifications to stderr.
func newSession() *app.Session {
	return app.NewSession(newClient(), notify.NewPrinter())
}

func stringPtr(s string) *string {
	return &s
}

// truncateString shortens s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// intArg parses the positional argument at i as a positive id.
func intArg(c *cli.Context, i int, name string) (int, error) {
	raw := strings.TrimSpace(c.Args().Get(i))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(raw, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// kindArg parses the positional entity kind at i.
func kindArg(c *cli.Context, i int) (models.EntityKind, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return "", fmt.Errorf("entity kind is required (tab, box or item)")
	}
	return models.ParseEntityKind(raw)
}

// failed prints the user-facing message of err and returns err.
func failed(action string, err error) error {
	fmt.Fprintf(os.Stderr, "Error %s: %s\n", action, apierrors.ParseAPIError(err))
	return err
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
