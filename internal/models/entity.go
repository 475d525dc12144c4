package models

import (
	"fmt"
	"strings"
)

// EntityKind names the kind of entity a tag can be attached to.
type EntityKind string

const (
	KindTab  EntityKind = "tab"
	KindBox  EntityKind = "box"
	KindItem EntityKind = "item"
)

// Kinds lists every attachable entity kind.
var Kinds = []EntityKind{KindTab, KindBox, KindItem}

// ParseEntityKind accepts "tab", "box" or "item" (case-insensitive, plural allowed).
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "tab":
		return KindTab, nil
	case "box", "boxe":
		return KindBox, nil
	case "item":
		return KindItem, nil
	}
	return "", fmt.Errorf("unknown entity kind %q (expected tab, box or item)", s)
}

// Label is the human name of the kind.
func (k EntityKind) Label() string {
	switch k {
	case KindTab:
		return "Tab"
	case KindBox:
		return "Box"
	case KindItem:
		return "Item"
	}
	return string(k)
}

// Link builds the attach/detach payload for an entity of this kind.
func (k EntityKind) Link(id int) TagLink {
	switch k {
	case KindTab:
		return TagLink{TabID: &id}
	case KindBox:
		return TagLink{BoxID: &id}
	default:
		return TagLink{ItemID: &id}
	}
}

// Entity is the subset of a tab, box or item that the attach workflow needs.
type Entity struct {
	Kind   EntityKind
	ID     int
	Name   string
	BoxID  *int
	TagIDs []int
}

// AsEntity returns the attachable view of the tab.
func (t Tab) AsEntity() Entity {
	return Entity{Kind: KindTab, ID: t.ID, Name: t.Name, TagIDs: t.TagIDs}
}

// AsEntity returns the attachable view of the box.
func (b Box) AsEntity() Entity {
	return Entity{Kind: KindBox, ID: b.ID, Name: b.Name, TagIDs: b.TagIDs}
}

// AsEntity returns the attachable view of the item.
func (i Item) AsEntity() Entity {
	return Entity{Kind: KindItem, ID: i.ID, Name: i.Name, BoxID: i.BoxID, TagIDs: i.TagIDs}
}
