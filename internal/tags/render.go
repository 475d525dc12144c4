package tags

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kutbudev/invctl/internal/models"
)

// Lookup resolves a tag id. A nil Lookup knows no tags.
type Lookup func(id int) (models.Tag, bool)

// Descriptor is everything a view needs to draw one tag.
type Descriptor struct {
	ID       int
	Name     string
	Color    string
	Readable string
}

// Dark reports whether the descriptor uses dark label text.
func (d Descriptor) Dark() bool {
	return d.Readable == DarkText
}

// Describe builds the descriptor of a single tag.
func Describe(tag models.Tag) Descriptor {
	color := SanitizeHexColor(tag.Color)
	name := tag.Name
	if name == "" {
		name = fmt.Sprintf("#%d", tag.ID)
	}
	return Descriptor{
		ID:       tag.ID,
		Name:     name,
		Color:    color,
		Readable: ReadableTextColor(color),
	}
}

// Descriptors returns one descriptor per id known to lookup, in the order
// of ids. Unknown ids are dropped.
func Descriptors(ids []int, lookup Lookup) []Descriptor {
	if len(ids) == 0 || lookup == nil {
		return []Descriptor{}
	}
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		tag, ok := lookup(id)
		if !ok {
			continue
		}
		out = append(out, Describe(tag))
	}
	return out
}

// Empty texts of the fragments.
const (
	EmptyCellText    = "none"
	EmptyPaletteText = "No tags yet"
	EmptyChipsText   = "No attached tags"
)

var mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")).Italic(true)

func pillStyle(d Descriptor) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(d.Color)).
		Foreground(lipgloss.Color(d.Readable)).
		Padding(0, 1)
}

// Pills renders the global tag palette, one pill per tag with its id.
func Pills(tags []models.Tag) string {
	if len(tags) == 0 {
		return mutedStyle.Render(EmptyPaletteText)
	}
	pills := make([]string, 0, len(tags))
	for _, tag := range tags {
		d := Describe(tag)
		pills = append(pills, pillStyle(d).Render(fmt.Sprintf("%s ·%d", d.Name, d.ID)))
	}
	return strings.Join(pills, " ")
}

// Strips renders a compact run of colored blocks, one per known tag.
func Strips(ids []int, lookup Lookup, emptyText string) string {
	descriptors := Descriptors(ids, lookup)
	if len(descriptors) == 0 {
		return mutedStyle.Render(emptyOr(emptyText, EmptyCellText))
	}
	var b strings.Builder
	for _, d := range descriptors {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render("▍"))
	}
	return b.String()
}

// FillCell renders tags as colored blocks followed by their names, for
// table cells that have room for text.
func FillCell(ids []int, lookup Lookup, emptyText string) string {
	descriptors := Descriptors(ids, lookup)
	if len(descriptors) == 0 {
		return mutedStyle.Render(emptyOr(emptyText, EmptyCellText))
	}
	parts := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		block := lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render("■")
		parts = append(parts, block+" "+d.Name)
	}
	return strings.Join(parts, ", ")
}

// Chips renders the tags attached to an entity, each marked with the id
// that detaches it.
func Chips(ids []int, lookup Lookup, emptyText string) string {
	descriptors := Descriptors(ids, lookup)
	if len(descriptors) == 0 {
		return mutedStyle.Render(emptyOr(emptyText, EmptyChipsText))
	}
	chips := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		chips = append(chips, pillStyle(d).Render(fmt.Sprintf("%s ✕%d", d.Name, d.ID)))
	}
	return strings.Join(chips, " ")
}

func emptyOr(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}
