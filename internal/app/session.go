// Package app wires one client session: the API client, the shared tag
// store and the controllers that read it.
package app

import (
	"context"
	"fmt"

	"github.com/kutbudev/invctl/internal/api"
	"github.com/kutbudev/invctl/internal/attach"
	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/logging"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/notify"
	"github.com/kutbudev/invctl/internal/tags"
	"go.uber.org/zap"
)

// Session is the per-process equivalent of one page load.
type Session struct {
	Client      *api.Client
	Store       *tags.Store
	Refresher   *tags.Refresher
	Controllers *attach.Set
	Tags        *tags.Manager
	Notifier    notify.Notifier
}

// NewSession builds a session around client.
func NewSession(client *api.Client, notifier notify.Notifier) *Session {
	if notifier == nil {
		notifier = notify.Discard
	}
	store := tags.NewStore(client.ListTags)
	refresher := &tags.Refresher{Store: store, Notifier: notifier}
	controllers := attach.NewSet(client, store, notifier)
	for _, kind := range models.Kinds {
		controllers.For(kind).Refresher = refresher
	}
	return &Session{
		Client:      client,
		Store:       store,
		Refresher:   refresher,
		Controllers: controllers,
		Tags: &tags.Manager{
			API:       client,
			Refresher: refresher,
			Notifier:  notifier,
		},
		Notifier: notifier,
	}
}

// LoadTags does the initial, silent, non-forced refresh.
func (s *Session) LoadTags(ctx context.Context) ([]models.Tag, error) {
	return s.Refresher.Refresh(ctx, false, true)
}

// ResolveEntity fetches the entity to tag. Boxes and items are looked up
// inside tabID; when tabID is 0, or the item is not among the search
// results, the entity is rebuilt from the tag store bindings and carries
// no name.
func (s *Session) ResolveEntity(ctx context.Context, kind models.EntityKind, id, tabID int) (models.Entity, error) {
	if id <= 0 {
		return models.Entity{}, apierrors.Invalid("id", "invalid %s id %d", kind, id)
	}
	switch {
	case kind == models.KindTab:
		tab, err := s.Client.GetTab(ctx, id)
		if err != nil {
			return models.Entity{}, err
		}
		return tab.AsEntity(), nil
	case kind == models.KindBox && tabID > 0:
		boxes, err := s.Client.ListBoxes(ctx, tabID)
		if err != nil {
			return models.Entity{}, err
		}
		for _, box := range boxes {
			if box.ID == id {
				return box.AsEntity(), nil
			}
		}
		return models.Entity{}, fmt.Errorf("box %d not found in tab %d", id, tabID)
	case kind == models.KindItem && tabID > 0:
		items, err := s.Client.SearchItems(ctx, tabID, "", 0)
		if err != nil {
			return models.Entity{}, err
		}
		for _, item := range items {
			if item.ID == id {
				return item.AsEntity(), nil
			}
		}
		// search results are capped, so the item may still exist
		logging.L().Debug("item not in search results, using tag bindings",
			zap.Int("item_id", id), zap.Int("tab_id", tabID), zap.Int("results", len(items)))
	}

	if _, err := s.Store.Refresh(ctx, false); err != nil {
		return models.Entity{}, err
	}
	return models.Entity{
		Kind:   kind,
		ID:     id,
		Name:   fmt.Sprintf("%s #%d", kind.Label(), id),
		TagIDs: s.Store.AttachedTo(kind, id),
	}, nil
}

// TabNames maps tab ids to names for binding descriptions.
func (s *Session) TabNames(ctx context.Context) (map[int]string, error) {
	tabs, err := s.Client.ListTabs(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(tabs))
	for _, tab := range tabs {
		names[tab.ID] = tab.Name
	}
	return names, nil
}
