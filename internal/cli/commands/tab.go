package commands

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/tags"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// NewTabCommand creates all subcommands for the 'tab' command group.
func NewTabCommand() *cli.Command {
	return &cli.Command{
		Name:    "tab",
		Aliases: []string{"t"},
		Usage:   "Browse inventory tabs",
		Subcommands: []*cli.Command{
			tabListCmd(),
			tabShowCmd(),
		},
	}
}

// tabListCmd lists all tabs with their tag strips.
func tabListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List all tabs",
		Action: func(c *cli.Context) error {
			s := newSession()
			tabs, err := s.Client.ListTabs(c.Context)
			if err != nil {
				return failed("listing tabs", err)
			}
			if len(tabs) == 0 {
				fmt.Println("No tabs found.")
				return nil
			}
			// a failed tag load still lists the tabs
			_, _ = s.LoadTags(c.Context)

			tbl := uitable.New()
			tbl.MaxColWidth = 60
			tbl.AddRow("ID", "NAME", "BOXES", "TAGS")
			for _, tab := range tabs {
				tbl.AddRow(tab.ID, truncateString(tab.Name, 40), tab.BoxCount,
					tags.FillCell(tab.TagIDs, s.Store.Lookup, tags.EmptyCellText))
			}
			fmt.Println(tbl)
			return nil
		},
	}
}

// tabShowCmd shows one tab with its boxes.
func tabShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a tab with its boxes and tags",
		ArgsUsage: "[tab-id]",
		Action: func(c *cli.Context) error {
			id, err := intArg(c, 0, "tab ID")
			if err != nil {
				return err
			}
			s := newSession()

			var (
				tab   *models.Tab
				boxes []models.Box
			)
			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error {
				var err error
				tab, err = s.Client.GetTab(ctx, id)
				return err
			})
			g.Go(func() error {
				var err error
				boxes, err = s.Client.ListBoxes(ctx, id)
				return err
			})
			g.Go(func() error {
				_, err := s.LoadTags(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return failed("loading tab", err)
			}

			fmt.Printf("Tab Details for '%s':\n", tab.Name)
			fmt.Printf("----------------------------------\n")
			fmt.Printf("ID:          %d\n", tab.ID)
			fmt.Printf("Name:        %s\n", tab.Name)
			if tab.Description != "" {
				fmt.Printf("Description: %s\n", tab.Description)
			}
			fmt.Printf("Tags:        %s\n", tags.Strips(tab.TagIDs, s.Store.Lookup, tags.EmptyCellText))
			if len(tab.Fields) > 0 {
				names := make([]string, 0, len(tab.Fields))
				for _, f := range tab.Fields {
					names = append(names, f.Name)
				}
				fmt.Printf("Fields:      %s\n", strings.Join(names, ", "))
			}
			fmt.Println()
			printBoxes(boxes, s.Store.Lookup)
			return nil
		},
	}
}

func printBoxes(boxes []models.Box, lookup tags.Lookup) {
	if len(boxes) == 0 {
		fmt.Println("No boxes in this tab.")
		return
	}
	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.AddRow("ID", "NAME", "ITEMS", "CAPACITY", "TAGS")
	for _, box := range boxes {
		tbl.AddRow(box.ID, truncateString(box.Name, 40), box.ItemsCount, intOrDash(box.Capacity),
			tags.FillCell(box.TagIDs, lookup, tags.EmptyCellText))
	}
	fmt.Println(tbl)
}

// NewBoxCommand lists the boxes of a tab.
func NewBoxCommand() *cli.Command {
	return &cli.Command{
		Name:  "box",
		Usage: "Browse boxes",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List the boxes of a tab",
				ArgsUsage: "[tab-id]",
				Action: func(c *cli.Context) error {
					tabID, err := intArg(c, 0, "tab ID")
					if err != nil {
						return err
					}
					s := newSession()
					boxes, err := s.Client.ListBoxes(c.Context, tabID)
					if err != nil {
						return failed("listing boxes", err)
					}
					_, _ = s.LoadTags(c.Context)
					printBoxes(boxes, s.Store.Lookup)
					return nil
				},
			},
		},
	}
}

// NewItemCommand searches the items of a tab.
func NewItemCommand() *cli.Command {
	return &cli.Command{
		Name:  "item",
		Usage: "Browse items",
		Subcommands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the items of a tab",
				ArgsUsage: "[tab-id] [query]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "maximum number of results",
						Value:   50,
					},
				},
				Action: func(c *cli.Context) error {
					tabID, err := intArg(c, 0, "tab ID")
					if err != nil {
						return err
					}
					query := strings.Join(c.Args().Slice()[1:], " ")
					s := newSession()
					items, err := s.Client.SearchItems(c.Context, tabID, query, c.Int("limit"))
					if err != nil {
						return failed("searching items", err)
					}
					if len(items) == 0 {
						fmt.Println("No items found.")
						return nil
					}
					_, _ = s.LoadTags(c.Context)

					tbl := uitable.New()
					tbl.MaxColWidth = 60
					tbl.AddRow("ID", "NAME", "BOX", "TAGS")
					for _, item := range items {
						tbl.AddRow(item.ID, truncateString(item.Name, 40), boxLabel(item),
							tags.FillCell(item.TagIDs, s.Store.Lookup, tags.EmptyCellText))
					}
					fmt.Println(tbl)
					return nil
				},
			},
		},
	}
}

// boxLabel names the box of a search result.
func boxLabel(item models.Item) string {
	if item.BoxID == nil {
		return "-"
	}
	if item.BoxName == "" {
		return fmt.Sprintf("#%d", *item.BoxID)
	}
	return fmt.Sprintf("%s (#%d)", truncateString(item.BoxName, 24), *item.BoxID)
}
