package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/gosuri/uitable"
	"github.com/kutbudev/invctl/internal/api"
	"github.com/kutbudev/invctl/internal/config"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/tags"
	"github.com/urfave/cli/v2"
)

// NewStatusCommand lists the issuance statuses.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Issuance statuses",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List statuses",
				Action: func(c *cli.Context) error {
					statuses, err := api.NewClient().ListStatuses(c.Context)
					if err != nil {
						return failed("listing statuses", err)
					}
					tbl := uitable.New()
					tbl.AddRow("ID", "NAME", "COLOR")
					for _, st := range statuses {
						tbl.AddRow(st.ID, statusLabel(st.Name, st.Color), tags.SanitizeHexColor(st.Color))
					}
					fmt.Println(tbl)
					return nil
				},
			},
		},
	}
}

// statusLabel renders a status name as a pill in its own color.
func statusLabel(name, color string) string {
	return tags.Pills([]models.Tag{{Name: name, Color: color}})
}

// NewIssueCommand creates all subcommands for the 'issue' command group.
func NewIssueCommand() *cli.Command {
	return &cli.Command{
		Name:  "issue",
		Usage: "Issue items and browse the issuance history",
		Subcommands: []*cli.Command{
			issueListCmd(),
			issueCreateCmd(),
			issueSetStatusCmd(),
		},
	}
}

func issueListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the issuance history",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Value: 1, Usage: "page number"},
			&cli.IntFlag{Name: "per-page", Value: 20, Usage: "entries per page"},
			&cli.IntFlag{Name: "status", Usage: "filter by status id"},
			&cli.StringFlag{Name: "responsible", Usage: "filter by responsible person"},
			&cli.StringFlag{Name: "serial", Usage: "filter by serial number"},
			&cli.StringFlag{Name: "invoice", Usage: "filter by invoice number"},
			&cli.StringFlag{Name: "item", Usage: "filter by item name"},
			&cli.TimestampFlag{Name: "from", Layout: "2006-01-02", Usage: "created on or after (YYYY-MM-DD)"},
			&cli.TimestampFlag{Name: "to", Layout: "2006-01-02", Usage: "created on or before (YYYY-MM-DD)"},
		},
		Action: func(c *cli.Context) error {
			filter := api.IssueFilter{
				Page:        c.Int("page"),
				PerPage:     c.Int("per-page"),
				StatusID:    c.Int("status"),
				Responsible: c.String("responsible"),
				Serial:      c.String("serial"),
				Invoice:     c.String("invoice"),
				Item:        c.String("item"),
				CreatedFrom: c.Timestamp("from"),
				CreatedTo:   c.Timestamp("to"),
			}
			page, err := api.NewClient().ListIssues(c.Context, filter)
			if err != nil {
				return failed("listing issues", err)
			}
			if len(page.Items) == 0 {
				fmt.Println("No issues found.")
				return nil
			}

			tbl := uitable.New()
			tbl.MaxColWidth = 40
			tbl.AddRow("ID", "DATE", "STATUS", "RESPONSIBLE", "SERIAL", "INVOICE")
			for _, e := range page.Items {
				tbl.AddRow(e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"),
					statusLabel(e.StatusName, e.StatusColor), e.ResponsibleUserName,
					e.SerialNumber, e.InvoiceNumber)
			}
			fmt.Println(tbl)
			fmt.Printf("Page %d, %d of %d entries\n", page.Page, len(page.Items), page.Total)
			return nil
		},
	}
}

func issueCreateCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Issue an item",
		ArgsUsage: "[item-id]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "status", Usage: "status id, defaults to the last one used"},
			&cli.StringFlag{Name: "responsible", Aliases: []string{"r"}, Usage: "responsible person, defaults to the last one used"},
			&cli.StringFlag{Name: "serial", Usage: "serial number"},
			&cli.StringFlag{Name: "invoice", Usage: "invoice number"},
		},
		Action: func(c *cli.Context) error {
			itemID, err := intArg(c, 0, "item ID")
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			client := api.NewClient()
			statusID := c.Int("status")
			if statusID == 0 {
				statusID = cfg.LastStatusID
			}
			if statusID == 0 {
				statusID, err = pickStatus(c, client)
				if err != nil {
					return err
				}
			}
			responsible := strings.TrimSpace(c.String("responsible"))
			if responsible == "" {
				responsible = cfg.LastResponsible
			}
			if responsible == "" {
				if err := survey.AskOne(&survey.Input{Message: "Responsible:"}, &responsible, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
				responsible = strings.TrimSpace(responsible)
			}

			req := models.IssueRequest{StatusID: statusID, Responsible: responsible}
			if v := strings.TrimSpace(c.String("serial")); v != "" {
				req.SerialNumber = stringPtr(v)
			}
			if v := strings.TrimSpace(c.String("invoice")); v != "" {
				req.InvoiceNumber = stringPtr(v)
			}
			entry, err := client.IssueItem(c.Context, itemID, req)
			if err != nil {
				return failed("issuing item", err)
			}

			if err := config.Update(func(cfg *config.Config) {
				cfg.LastStatusID = statusID
				cfg.LastResponsible = responsible
			}); err != nil {
				fmt.Printf("Warning: could not remember issue defaults: %v\n", err)
			}
			fmt.Printf("✅ Item %d issued (%s) at %s\n", itemID, entry.StatusName, entry.CreatedAt.Local().Format(time.RFC822))
			return nil
		},
	}
}

func pickStatus(c *cli.Context, client *api.Client) (int, error) {
	statuses, err := client.ListStatuses(c.Context)
	if err != nil {
		return 0, failed("listing statuses", err)
	}
	if len(statuses) == 0 {
		return 0, fmt.Errorf("no statuses defined")
	}
	options := make([]string, len(statuses))
	for i, st := range statuses {
		options[i] = st.Name
	}
	var idx int
	if err := survey.AskOne(&survey.Select{Message: "Status:", Options: options}, &idx); err != nil {
		return 0, err
	}
	return statuses[idx].ID, nil
}

func issueSetStatusCmd() *cli.Command {
	return &cli.Command{
		Name:      "set-status",
		Usage:     "Change the status of an issue",
		ArgsUsage: "[issue-id] [status-id]",
		Action: func(c *cli.Context) error {
			issueID, err := intArg(c, 0, "issue ID")
			if err != nil {
				return err
			}
			statusID, err := intArg(c, 1, "status ID")
			if err != nil {
				return err
			}
			entry, err := api.NewClient().UpdateIssueStatus(c.Context, issueID, statusID)
			if err != nil {
				return failed("updating issue", err)
			}
			fmt.Printf("✅ Issue %d is now %s\n", entry.ID, entry.StatusName)
			return nil
		},
	}
}

// NewUserCommand lists the accounts of the admin system.
func NewUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Accounts",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List users",
				Action: func(c *cli.Context) error {
					users, err := api.NewClient().ListUsers(c.Context)
					if err != nil {
						return failed("listing users", err)
					}
					tbl := uitable.New()
					tbl.AddRow("ID", "EMAIL", "NAME", "ROLE", "ACTIVE")
					for _, u := range users {
						tbl.AddRow(u.ID, u.Email, u.FullName, u.Role, u.IsActive)
					}
					fmt.Println(tbl)
					return nil
				},
			},
		},
	}
}
