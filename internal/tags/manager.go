package tags

import (
	"context"
	"fmt"
	"strings"

	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
)

// TagAPI is the part of the backend the palette manager needs.
type TagAPI interface {
	CreateTag(ctx context.Context, name, color string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int) error
}

// DefaultNewTagColor is the color of a new tag when none is given.
const DefaultNewTagColor = "#0d6efd"

// Manager creates and deletes tags of the global palette and keeps the
// shared store in step.
type Manager struct {
	API       TagAPI
	Refresher *Refresher
	Notifier  notify.Notifier

	// OnChanged lets the owning view re-render after a palette change
	OnChanged func(ctx context.Context) error
}

func (m *Manager) notifier() notify.Notifier {
	if m.Notifier == nil {
		return notify.Discard
	}
	return m.Notifier
}

// Create validates and creates a tag, then refreshes the store.
func (m *Manager) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := apierrors.Invalid("name", "Enter a tag name")
		m.notifier().Notify(notify.Warning, err.Error())
		return nil, err
	}
	if strings.TrimSpace(color) == "" {
		color = DefaultNewTagColor
	}
	color = SanitizeHexColor(color)

	tag, err := m.API.CreateTag(ctx, name, color)
	if err != nil {
		m.notifier().Notify(notify.Danger, messageOr(err, "Could not create tag"))
		return nil, err
	}
	m.notifier().Notify(notify.Success, fmt.Sprintf("Tag %s added", name))
	m.afterChange(ctx)
	return tag, nil
}

// Delete deletes a tag everywhere, then refreshes the store.
func (m *Manager) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		err := apierrors.Invalid("tag", "Select a tag to delete")
		m.notifier().Notify(notify.Warning, err.Error())
		return err
	}
	if err := m.API.DeleteTag(ctx, id); err != nil {
		m.notifier().Notify(notify.Danger, messageOr(err, "Could not delete tag"))
		return err
	}
	m.notifier().Notify(notify.Success, "Tag deleted")
	m.afterChange(ctx)
	return nil
}

// afterChange does a forced, user-visible refresh and lets the owner
// re-render. Failures were already reported by the refresher.
func (m *Manager) afterChange(ctx context.Context) {
	if m.Refresher != nil {
		if _, err := m.Refresher.Refresh(ctx, true, false); err != nil {
			return
		}
	}
	if m.OnChanged != nil {
		if err := m.OnChanged(ctx); err != nil {
			m.notifier().Notify(notify.Danger, messageOr(err, "Could not reload view"))
		}
	}
}

// Bindings describes where a tag is attached, for the delete confirmation.
// tabNames resolves tab ids to names and may be nil.
func Bindings(tag models.Tag, tabNames map[int]string) []string {
	out := make([]string, 0, len(tag.AttachedTabs)+len(tag.AttachedBoxes)+len(tag.AttachedItems))
	for _, id := range tag.AttachedTabs {
		name, ok := tabNames[id]
		if !ok || name == "" {
			name = fmt.Sprintf("#%d", id)
		}
		out = append(out, "Tab: "+name)
	}
	for _, id := range tag.AttachedBoxes {
		out = append(out, fmt.Sprintf("Box ID: %d", id))
	}
	for _, id := range tag.AttachedItems {
		out = append(out, fmt.Sprintf("Item ID: %d", id))
	}
	return out
}

func messageOr(err error, fallback string) string {
	if msg := apierrors.ParseAPIError(err); msg != "" && msg != apierrors.FallbackMessage {
		return msg
	}
	return fallback
}
