// Package attach implements the attach/detach workflow for one entity
// kind at a time: it owns the attachment context of the entity being
// edited and keeps it, the shared tag store and the owning view coherent.
package attach

import (
	"context"
	"fmt"
	"sync"

	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/logging"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
	"github.com/kutbudev/invctl/internal/tags"
	"go.uber.org/zap"
)

// LinkAPI is the part of the backend the controller calls.
type LinkAPI interface {
	AttachTag(ctx context.Context, tagID int, link models.TagLink) (*models.Tag, error)
	DetachTag(ctx context.Context, tagID int, link models.TagLink) (*models.Tag, error)
}

// ViewState is what a view needs to draw the attach dialog.
type ViewState struct {
	Open       bool
	Context    Context
	Chips      []tags.Descriptor
	Available  []models.Tag
	Selected   int
	HasOptions bool
	Busy       bool
}

// View draws the attach dialog.
type View interface {
	Render(state ViewState)
}

// ViewFunc adapts a function to View.
type ViewFunc func(state ViewState)

// Render calls f.
func (f ViewFunc) Render(state ViewState) { f(state) }

// ChangedFunc is called after a confirmed attach or detach so the owning
// page can re-render the table or dialog that shows the entity.
type ChangedFunc func(ctx context.Context, entity Context) error

// User-facing messages.
const (
	msgNoOptions      = "No free tags: detach an existing one or create a new tag."
	msgSelectTag      = "Select a tag to attach"
	msgNoEntity       = "Nothing is open for tagging"
	msgBusy           = "Another tag operation is still running"
	msgAttachFailed   = "Could not attach tag"
	msgDetachFailed   = "Could not detach tag"
	msgChangedFailed  = "Could not reload the view"
	msgAttachedFormat = "Tag attached to %s"
	msgDetachedFormat = "Tag detached from %s"
)

// Controller runs the attach workflow for one entity kind. It is Idle
// when no context is open and Open otherwise. Opening another entity
// replaces the context without carrying anything over.
type Controller struct {
	Kind      models.EntityKind
	API       LinkAPI
	Store     *tags.Store
	Refresher *tags.Refresher
	Notifier  notify.Notifier
	View      View
	OnChanged ChangedFunc

	mu         sync.Mutex
	current    *Context
	selected   int
	generation uint64
	busy       bool
}

// NewController wires a controller for kind.
func NewController(kind models.EntityKind, api LinkAPI, store *tags.Store, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Controller{
		Kind:      kind,
		API:       api,
		Store:     store,
		Refresher: &tags.Refresher{Store: store, Notifier: notifier},
		Notifier:  notifier,
	}
}

func (c *Controller) notifier() notify.Notifier {
	if c.Notifier == nil {
		return notify.Discard
	}
	return c.Notifier
}

// Open starts editing entity. The "available" selector is the store
// content minus the entity's tags, with the first one pre-selected.
// An empty selector is reported as a warning; detaching and creating
// tags stay possible.
func (c *Controller) Open(entity models.Entity) (ViewState, error) {
	if entity.Kind != c.Kind {
		return ViewState{}, apierrors.Invalid("kind", "%s controller cannot open a %s", c.Kind, entity.Kind)
	}
	if entity.ID <= 0 {
		return ViewState{}, apierrors.Invalid("id", "invalid %s id %d", entity.Kind, entity.ID)
	}

	c.mu.Lock()
	c.generation++
	c.current = newContext(entity)
	c.selected = 0
	state := c.stateLocked()
	c.selected = state.Selected
	c.mu.Unlock()

	if !state.HasOptions {
		c.notifier().Notify(notify.Warning, msgNoOptions)
	}
	c.render(state)
	return state, nil
}

// Close discards the context.
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.current = nil
	c.selected = 0
	c.mu.Unlock()
	c.render(ViewState{})
}

// Current returns a copy of the open context.
func (c *Controller) Current() (Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Context{}, false
	}
	return c.current.clone(), true
}

// Busy reports whether an attach or detach is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// State recomputes the view state from the context and the store.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Select changes the pre-selected tag. Unknown or unavailable ids are ignored.
func (c *Controller) Select(tagID int) bool {
	c.mu.Lock()
	if c.current == nil || c.current.Has(tagID) {
		c.mu.Unlock()
		return false
	}
	if _, ok := c.Store.ByID(tagID); !ok {
		c.mu.Unlock()
		return false
	}
	c.selected = tagID
	state := c.stateLocked()
	c.mu.Unlock()
	c.render(state)
	return true
}

// Selected is the tag that Attach would use by default.
func (c *Controller) Selected() int {
	return c.State().Selected
}

func (c *Controller) stateLocked() ViewState {
	state := ViewState{Busy: c.busy}
	if c.current == nil {
		return state
	}
	state.Open = true
	state.Context = c.current.clone()
	state.Chips = tags.Descriptors(state.Context.TagIDs, c.Store.Lookup)
	state.Available = c.current.Available(c.Store.All())
	state.HasOptions = len(state.Available) > 0
	if state.HasOptions {
		state.Selected = state.Available[0].ID
		for _, tag := range state.Available {
			if tag.ID == c.selected {
				state.Selected = c.selected
				break
			}
		}
	}
	return state
}

func (c *Controller) render(state ViewState) {
	if c.View != nil {
		c.View.Render(state)
	}
}

// Attach binds tagID to the open entity. The context only changes after
// the backend confirmed; attaching a tag that is already in the context
// issues the call and leaves the context as it is.
func (c *Controller) Attach(ctx context.Context, tagID int) error {
	return c.link(ctx, tagID, true)
}

// AttachSelected attaches the pre-selected tag.
func (c *Controller) AttachSelected(ctx context.Context) error {
	return c.Attach(ctx, c.Selected())
}

// Detach removes tagID from the open entity. Detaching a tag that is not
// in the context issues the call and changes nothing locally.
func (c *Controller) Detach(ctx context.Context, tagID int) error {
	return c.link(ctx, tagID, false)
}

func (c *Controller) link(ctx context.Context, tagID int, attach bool) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return c.invalid("entity", msgNoEntity)
	}
	if tagID <= 0 {
		c.mu.Unlock()
		return c.invalid("tag", msgSelectTag)
	}
	if c.busy {
		c.mu.Unlock()
		return c.invalid("busy", msgBusy)
	}
	c.busy = true
	generation := c.generation
	entityID := c.current.ID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	link := c.Kind.Link(entityID)
	var err error
	if attach {
		_, err = c.API.AttachTag(ctx, tagID, link)
	} else {
		_, err = c.API.DetachTag(ctx, tagID, link)
	}
	if err != nil {
		fallback := msgDetachFailed
		if attach {
			fallback = msgAttachFailed
		}
		logging.L().Debug("tag link failed",
			zap.String("kind", string(c.Kind)),
			zap.Int("entity_id", entityID),
			zap.Int("tag_id", tagID),
			zap.Bool("attach", attach),
			zap.Error(err))
		c.notifier().Notify(notify.Danger, messageOr(err, fallback))
		return err
	}

	c.mu.Lock()
	var snapshot Context
	stillOpen := c.current != nil && c.generation == generation && c.current.ID == entityID
	if stillOpen {
		if attach {
			c.current.add(tagID)
		} else {
			c.current.remove(tagID)
		}
		snapshot = c.current.clone()
	} else {
		snapshot = Context{Kind: c.Kind, ID: entityID}
	}
	state := c.stateLocked()
	c.mu.Unlock()

	if stillOpen {
		c.render(state)
	}

	label := kindLabel(c.Kind)
	if attach {
		c.notifier().Notify(notify.Success, fmt.Sprintf(msgAttachedFormat, label))
	} else {
		c.notifier().Notify(notify.Success, fmt.Sprintf(msgDetachedFormat, label))
	}

	if c.Refresher != nil {
		// failures are logged by the refresher and do not undo the link
		_, _ = c.Refresher.Refresh(ctx, true, true)
		if stillOpen {
			c.render(c.State())
		}
	}

	if c.OnChanged != nil {
		if err := c.OnChanged(ctx, snapshot); err != nil {
			c.notifier().Notify(notify.Danger, messageOr(err, msgChangedFailed))
		}
	}
	return nil
}

func (c *Controller) invalid(field, msg string) error {
	err := apierrors.Invalid(field, "%s", msg)
	c.notifier().Notify(notify.Warning, msg)
	return err
}

func kindLabel(kind models.EntityKind) string {
	switch kind {
	case models.KindTab:
		return "tab"
	case models.KindBox:
		return "box"
	case models.KindItem:
		return "item"
	}
	return string(kind)
}

func messageOr(err error, fallback string) string {
	if msg := apierrors.ParseAPIError(err); msg != "" && msg != apierrors.FallbackMessage {
		return msg
	}
	return fallback
}
