package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/gosuri/uitable"
	"github.com/kutbudev/invctl/internal/app"
	"github.com/kutbudev/invctl/internal/attach"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
	"github.com/kutbudev/invctl/internal/tags"
	"github.com/kutbudev/invctl/internal/tui"
	"github.com/urfave/cli/v2"
)

// NewTagCommand creates all subcommands for the 'tag' command group.
func NewTagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage tags and attach them to tabs, boxes and items",
		Subcommands: []*cli.Command{
			tagListCmd(),
			tagCreateCmd(),
			tagDeleteCmd(),
			tagShowCmd(),
			tagAttachCmd(),
			tagDetachCmd(),
			tagUICmd(),
		},
	}
}

var tabFlag = &cli.IntFlag{
	Name:  "tab",
	Usage: "tab holding the box or item, used to show its name and tags",
}

// tagListCmd prints the palette and a table of bindings.
func tagListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List all tags",
		Action: func(c *cli.Context) error {
			s := newSession()
			list, err := s.Refresher.Refresh(c.Context, true, false)
			if err != nil {
				return err
			}
			fmt.Println(tags.Pills(list))
			if len(list) == 0 {
				return nil
			}
			fmt.Println()

			tbl := uitable.New()
			tbl.AddRow("ID", "NAME", "COLOR", "TABS", "BOXES", "ITEMS")
			for _, tag := range list {
				tbl.AddRow(tag.ID, tag.Name, tags.SanitizeHexColor(tag.Color),
					len(tag.AttachedTabs), len(tag.AttachedBoxes), len(tag.AttachedItems))
			}
			fmt.Println(tbl)
			return nil
		},
	}
}

func tagCreateCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new tag",
		ArgsUsage: "[name]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "hex color",
				Value:   tags.DefaultNewTagColor,
			},
		},
		Action: func(c *cli.Context) error {
			s := newSession()
			s.Tags.OnChanged = func(ctx context.Context) error {
				fmt.Println(tags.Pills(s.Store.All()))
				return nil
			}
			tag, err := s.Tags.Create(c.Context, strings.Join(c.Args().Slice(), " "), c.String("color"))
			if err != nil {
				return err
			}
			fmt.Printf("ID: %d\n", tag.ID)
			return nil
		},
	}
}

func tagDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a tag",
		ArgsUsage: "[tag-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "do not ask for confirmation",
			},
		},
		Action: func(c *cli.Context) error {
			id, err := intArg(c, 0, "tag ID")
			if err != nil {
				return err
			}
			if !c.Bool("yes") {
				confirm := false
				prompt := &survey.Confirm{Message: fmt.Sprintf("Delete tag #%d and all its bindings?", id)}
				if err := survey.AskOne(prompt, &confirm); err != nil {
					return err
				}
				if !confirm {
					return nil
				}
			}
			return newSession().Tags.Delete(c.Context, id)
		},
	}
}

// tagShowCmd renders a markdown report of one tag.
func tagShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a tag and everything it is attached to",
		ArgsUsage: "[tag-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "copy the tag color to the clipboard",
			},
		},
		Action: func(c *cli.Context) error {
			id, err := intArg(c, 0, "tag ID")
			if err != nil {
				return err
			}
			s := newSession()
			if _, err := s.Refresher.Refresh(c.Context, true, false); err != nil {
				return err
			}
			tag, ok := s.Store.ByID(id)
			if !ok {
				return fmt.Errorf("tag %d not found", id)
			}
			tabNames, err := s.TabNames(c.Context)
			if err != nil {
				tabNames = nil
			}

			out, err := renderMarkdown(tagReport(tag, tabNames))
			if err != nil {
				return err
			}
			fmt.Print(out)

			if c.Bool("copy") {
				color := tags.SanitizeHexColor(tag.Color)
				if err := clipboard.WriteAll(color); err != nil {
					return fmt.Errorf("could not copy to clipboard: %w", err)
				}
				fmt.Printf("Copied %s to clipboard\n", color)
			}
			return nil
		},
	}
}

func tagReport(tag models.Tag, tabNames map[int]string) string {
	d := tags.Describe(tag)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "- **ID:** %d\n", d.ID)
	fmt.Fprintf(&b, "- **Color:** `%s`\n", d.Color)
	fmt.Fprintf(&b, "- **Text color:** `%s`\n\n", d.Readable)
	fmt.Fprintf(&b, "## Attached to\n\n")
	bindings := tags.Bindings(tag, tabNames)
	if len(bindings) == 0 {
		b.WriteString("_Not attached to anything._\n")
	}
	for _, line := range bindings {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return b.String()
}

func renderMarkdown(md string) (string, error) {
	if !isTerminal() {
		return md, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md, nil
	}
	return r.Render(md)
}

func tagAttachCmd() *cli.Command {
	return &cli.Command{
		Name:      "attach",
		Usage:     "Attach a tag to a tab, box or item",
		ArgsUsage: "[tab|box|item] [id]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "tag",
				Usage: "tag to attach, asked interactively when omitted",
			},
			tabFlag,
		},
		Action: func(c *cli.Context) error {
			return runLink(c, true)
		},
	}
}

func tagDetachCmd() *cli.Command {
	return &cli.Command{
		Name:      "detach",
		Usage:     "Detach a tag from a tab, box or item",
		ArgsUsage: "[tab|box|item] [id]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "tag",
				Usage: "tag to detach, asked interactively when omitted",
			},
			tabFlag,
		},
		Action: func(c *cli.Context) error {
			return runLink(c, false)
		},
	}
}

// openEntity resolves the command's entity and opens its controller.
func openEntity(c *cli.Context, s *app.Session) (*attach.Controller, attach.ViewState, error) {
	kind, err := kindArg(c, 0)
	if err != nil {
		return nil, attach.ViewState{}, err
	}
	id, err := intArg(c, 1, kind.Label()+" ID")
	if err != nil {
		return nil, attach.ViewState{}, err
	}
	if _, err := s.LoadTags(c.Context); err != nil {
		return nil, attach.ViewState{}, err
	}
	entity, err := s.ResolveEntity(c.Context, kind, id, c.Int("tab"))
	if err != nil {
		return nil, attach.ViewState{}, failed("loading "+string(kind), err)
	}
	controller := s.Controllers.For(kind)
	state, err := controller.Open(entity)
	if err != nil {
		return nil, attach.ViewState{}, err
	}
	return controller, state, nil
}

func runLink(c *cli.Context, attaching bool) error {
	s := newSession()
	s.Controllers.OnChanged(func(ctx context.Context, entity attach.Context) error {
		fmt.Printf("%s: %s\n", entity.Name, tags.Chips(entity.TagIDs, s.Store.Lookup, tags.EmptyChipsText))
		return nil
	})

	controller, state, err := openEntity(c, s)
	if err != nil {
		return err
	}
	defer controller.Close()

	tagID := c.Int("tag")
	if attaching {
		if tagID == 0 {
			if !state.HasOptions {
				return nil
			}
			tagID, err = pickTag("Tag to attach:", state.Available, state.Selected)
			if err != nil {
				return err
			}
			controller.Select(tagID)
			return controller.AttachSelected(c.Context)
		}
		return controller.Attach(c.Context, tagID)
	}

	if tagID == 0 {
		if len(state.Chips) == 0 {
			fmt.Println(tags.EmptyChipsText)
			return nil
		}
		attached := make([]models.Tag, 0, len(state.Chips))
		for _, d := range state.Chips {
			attached = append(attached, models.Tag{ID: d.ID, Name: d.Name, Color: d.Color})
		}
		tagID, err = pickTag("Tag to detach:", attached, attached[0].ID)
		if err != nil {
			return err
		}
	}
	return controller.Detach(c.Context, tagID)
}

// pickTag asks for one tag of list, starting on preselected.
func pickTag(message string, list []models.Tag, preselected int) (int, error) {
	options := make([]string, 0, len(list))
	ids := make(map[string]int, len(list))
	def := ""
	for _, tag := range list {
		label := fmt.Sprintf("%s (#%d)", tags.Describe(tag).Name, tag.ID)
		options = append(options, label)
		ids[label] = tag.ID
		if tag.ID == preselected {
			def = label
		}
	}
	prompt := &survey.Select{Message: message, Options: options}
	if def != "" {
		prompt.Default = def
	}
	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		return 0, err
	}
	return ids[answer], nil
}

// tagUICmd opens the interactive dialog for one entity.
func tagUICmd() *cli.Command {
	return &cli.Command{
		Name:      "ui",
		Usage:     "Edit the tags of a tab, box or item interactively",
		ArgsUsage: "[tab|box|item] [id]",
		Flags:     []cli.Flag{tabFlag},
		Action: func(c *cli.Context) error {
			if !isTerminal() {
				return errors.New("tag ui needs an interactive terminal")
			}
			notices := &notify.Recorder{}
			s := app.NewSession(newClient(), notices)
			controller, _, err := openEntity(c, s)
			if err != nil {
				return err
			}
			if err := tui.Run(c.Context, controller, s.Refresher, notices); err != nil {
				return err
			}
			printNoticeSummary(notices)
			return nil
		},
	}
}

// printNoticeSummary repeats the dialog's notifications once it is gone.
func printNoticeSummary(r *notify.Recorder) {
	p := notify.NewPrinter()
	for _, e := range r.Entries() {
		p.Notify(e.Level, e.Message)
	}
}
