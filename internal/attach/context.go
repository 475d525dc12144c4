package attach

import "github.com/kutbudev/invctl/internal/models"

// Context is the attachment state of the entity being edited. TagIDs is
// an insertion-ordered set and only changes after the backend confirmed
// an attach or detach.
type Context struct {
	Kind   models.EntityKind
	ID     int
	Name   string
	BoxID  *int
	TagIDs []int
}

// newContext copies the entity, normalizing its tag ids to a set of
// positive integers in first-seen order.
func newContext(e models.Entity) *Context {
	c := &Context{Kind: e.Kind, ID: e.ID, Name: e.Name, TagIDs: make([]int, 0, len(e.TagIDs))}
	if e.BoxID != nil {
		boxID := *e.BoxID
		c.BoxID = &boxID
	}
	for _, id := range e.TagIDs {
		if id > 0 {
			c.add(id)
		}
	}
	return c
}

// Has reports whether the tag is attached.
func (c *Context) Has(tagID int) bool {
	for _, id := range c.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// add appends tagID unless present. It reports whether the set changed.
func (c *Context) add(tagID int) bool {
	if c.Has(tagID) {
		return false
	}
	c.TagIDs = append(c.TagIDs, tagID)
	return true
}

// remove drops tagID. It reports whether the set changed.
func (c *Context) remove(tagID int) bool {
	for i, id := range c.TagIDs {
		if id == tagID {
			c.TagIDs = append(c.TagIDs[:i:i], c.TagIDs[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Context) clone() Context {
	out := *c
	out.TagIDs = append([]int(nil), c.TagIDs...)
	if c.BoxID != nil {
		boxID := *c.BoxID
		out.BoxID = &boxID
	}
	return out
}

// Available returns the tags of all that are not in the context, keeping
// the order of all.
func (c *Context) Available(all []models.Tag) []models.Tag {
	out := make([]models.Tag, 0, len(all))
	for _, tag := range all {
		if !c.Has(tag.ID) {
			out = append(out, tag)
		}
	}
	return out
}
