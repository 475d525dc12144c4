package attach

import (
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
	"github.com/kutbudev/invctl/internal/tags"
)

// Set holds one controller per entity kind, all sharing a store.
type Set struct {
	Tab  *Controller
	Box  *Controller
	Item *Controller
}

// NewSet builds the three controllers of a session.
func NewSet(api LinkAPI, store *tags.Store, notifier notify.Notifier) *Set {
	return &Set{
		Tab:  NewController(models.KindTab, api, store, notifier),
		Box:  NewController(models.KindBox, api, store, notifier),
		Item: NewController(models.KindItem, api, store, notifier),
	}
}

// For returns the controller of kind.
func (s *Set) For(kind models.EntityKind) *Controller {
	switch kind {
	case models.KindTab:
		return s.Tab
	case models.KindBox:
		return s.Box
	case models.KindItem:
		return s.Item
	}
	return nil
}

// OnChanged installs fn on every controller.
func (s *Set) OnChanged(fn ChangedFunc) {
	for _, c := range []*Controller{s.Tab, s.Box, s.Item} {
		c.OnChanged = fn
	}
}
