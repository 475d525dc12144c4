// Package tags holds the tag cache shared by every view of a session and
// the helpers that turn tag ids into rendered fragments.
package tags

import (
	"context"
	"slices"
	"sync"

	"github.com/kutbudev/invctl/internal/models"
)

// FetchFunc loads every tag from the backend.
type FetchFunc func(ctx context.Context) ([]models.Tag, error)

// Store is the in-memory tag cache of one session. The index always
// reflects exactly the cached sequence; both are replaced together and
// never mutated in place. Readers get copies.
//
// Every refresh takes a ticket when it is issued. A response is applied
// only if no later-issued refresh has been applied already, so a slow
// stale response cannot overwrite a newer one.
type Store struct {
	fetch FetchFunc

	mu      sync.RWMutex
	cache   []models.Tag
	byID    map[int]models.Tag
	loaded  bool
	issued  uint64
	applied uint64
}

// NewStore returns an empty, unloaded store. fetch must not be nil.
func NewStore(fetch FetchFunc) *Store {
	if fetch == nil {
		panic("tags.NewStore expects a fetch function")
	}
	return &Store{fetch: fetch, byID: map[int]models.Tag{}}
}

// Refresh returns the cached tags without a network call when the store is
// loaded and force is false. Otherwise it fetches, replaces the cache and
// returns the new sequence. Fetch errors are returned untouched and leave
// the cache as it was.
func (s *Store) Refresh(ctx context.Context, force bool) ([]models.Tag, error) {
	s.mu.Lock()
	if s.loaded && !force {
		cached := cloneTags(s.cache)
		s.mu.Unlock()
		return cached, nil
	}
	s.issued++
	ticket := s.issued
	s.mu.Unlock()

	tags, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.apply(ticket, tags), nil
}

func (s *Store) apply(ticket uint64, fetched []models.Tag) []models.Tag {
	tags := cloneTags(fetched)
	index := make(map[int]models.Tag, len(tags))
	for _, tag := range tags {
		index[tag.ID] = tag
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.applied {
		// a newer refresh already landed
		return cloneTags(s.cache)
	}
	s.applied = ticket
	s.cache = tags
	s.byID = index
	s.loaded = true
	return cloneTags(s.cache)
}

// All returns the cached sequence in fetch order. It may be empty.
func (s *Store) All() []models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTags(s.cache)
}

// ByID looks a tag up in the index.
func (s *Store) ByID(id int) (models.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.byID[id]
	return cloneTag(tag), ok
}

// ByIDs returns the known tags among ids, in the order of ids.
// Unknown ids are dropped.
func (s *Store) ByIDs(ids []int) []models.Tag {
	if len(ids) == 0 {
		return []models.Tag{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := s.byID[id]; ok {
			out = append(out, cloneTag(tag))
		}
	}
	return out
}

// Lookup adapts ByID to the Lookup signature used by the render helpers.
func (s *Store) Lookup(id int) (models.Tag, bool) {
	return s.ByID(id)
}

// Clear resets the store to empty and unloaded.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.byID = map[int]models.Tag{}
	s.loaded = false
	// responses of refreshes issued before the clear are discarded
	s.applied = s.issued + 1
	s.issued = s.applied
}

// Loaded reports whether a fetch has succeeded since the last Clear.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// AttachedTo returns, in cache order, the ids of the tags whose bindings
// include the entity. It is the store's view of an entity's tags and is
// used when the entity itself was not fetched.
func (s *Store) AttachedTo(kind models.EntityKind, id int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []int{}
	for _, tag := range s.cache {
		var bound []int
		switch kind {
		case models.KindTab:
			bound = tag.AttachedTabs
		case models.KindBox:
			bound = tag.AttachedBoxes
		case models.KindItem:
			bound = tag.AttachedItems
		}
		for _, b := range bound {
			if b == id {
				out = append(out, tag.ID)
				break
			}
		}
	}
	return out
}

func cloneTag(tag models.Tag) models.Tag {
	tag.AttachedTabs = slices.Clone(tag.AttachedTabs)
	tag.AttachedBoxes = slices.Clone(tag.AttachedBoxes)
	tag.AttachedItems = slices.Clone(tag.AttachedItems)
	return tag
}

// cloneTags copies tags and their bindings. The result is never nil.
func cloneTags(tags []models.Tag) []models.Tag {
	out := make([]models.Tag, len(tags))
	for i, tag := range tags {
		out[i] = cloneTag(tag)
	}
	return out
}
