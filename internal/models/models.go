package models

import (
	"encoding/json"
	"time"
)

// Tag represents a colored label that can be attached to tabs, boxes and items
type Tag struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Color         string `json:"color"`
	AttachedTabs  []int  `json:"attached_tabs"`
	AttachedBoxes []int  `json:"attached_boxes"`
	AttachedItems []int  `json:"attached_items"`
}

// TabField describes one metadata column of a tab
type TabField struct {
	ID            int               `json:"id"`
	Name          string            `json:"name"`
	FieldType     string            `json:"field_type"`
	Required      bool              `json:"required"`
	AllowedValues map[string]string `json:"allowed_values,omitempty"`
}

// Tab represents an inventory tab (a category such as "RAM" or "CPU")
type Tab struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	TagIDs      []int      `json:"tag_ids"`
	BoxCount    int        `json:"box_count"`
	Fields      []TabField `json:"fields,omitempty"`
}

// Box represents a physical box inside a tab
type Box struct {
	ID         int    `json:"id"`
	TabID      int    `json:"tab_id"`
	Name       string `json:"name"`
	Capacity   *int   `json:"capacity,omitempty"`
	ItemsCount int    `json:"items_count"`
	TagIDs     []int  `json:"tag_ids"`
}

// Item represents a stored inventory item
type Item struct {
	ID           int             `json:"id"`
	TabID        int             `json:"tab_id"`
	BoxID        *int            `json:"box_id,omitempty"`
	Name         string          `json:"name"`
	Qty          int             `json:"qty"`
	Position     int             `json:"position"`
	SerialNumber []string        `json:"serial_number,omitempty"`
	TagIDs       []int           `json:"tag_ids"`
	Metadata     json.RawMessage `json:"metadata_json,omitempty"`

	// BoxName is only known for search results
	BoxName string `json:"-"`
}

// ItemBoxRef is the box summary embedded in search results
type ItemBoxRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ItemSearchResult is one row of /items/search. The box comes as a nested
// object and the metadata under "metadata"; some backends send the tags
// as objects instead of ids.
type ItemSearchResult struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Qty      int             `json:"qty,omitempty"`
	Box      *ItemBoxRef     `json:"box"`
	TagIDs   []int           `json:"tag_ids,omitempty"`
	Tags     []Tag           `json:"tags,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// AsItem converts a search row of tab tabID into an Item.
func (r ItemSearchResult) AsItem(tabID int) Item {
	item := Item{
		ID:       r.ID,
		TabID:    tabID,
		Name:     r.Name,
		Qty:      r.Qty,
		TagIDs:   r.TagIDs,
		Metadata: r.Metadata,
	}
	if r.Box != nil {
		boxID := r.Box.ID
		item.BoxID = &boxID
		item.BoxName = r.Box.Name
	}
	if item.TagIDs == nil {
		item.TagIDs = make([]int, 0, len(r.Tags))
		for _, tag := range r.Tags {
			item.TagIDs = append(item.TagIDs, tag.ID)
		}
	}
	return item
}

// ItemSearchResponse wraps the results of /items/search
type ItemSearchResponse struct {
	Results []ItemSearchResult `json:"results"`
	Count   int                `json:"count,omitempty"`
}

// Status represents an issuance status
type Status struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// IssueEntry is one row of the issuance history
type IssueEntry struct {
	ID                  int             `json:"id"`
	ItemID              *int            `json:"item_id,omitempty"`
	StatusID            int             `json:"status_id"`
	StatusName          string          `json:"status_name"`
	StatusColor         string          `json:"status_color"`
	ResponsibleUserName string          `json:"responsible_user_name"`
	SerialNumber        string          `json:"serial_number"`
	InvoiceNumber       string          `json:"invoice_number"`
	ItemSnapshot        json.RawMessage `json:"item_snapshot,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// IssuePage is a page of issuance history
type IssuePage struct {
	Items   []IssueEntry `json:"items"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// IssueRequest is the payload for issuing an item
type IssueRequest struct {
	StatusID      int     `json:"status_id"`
	Responsible   string  `json:"responsible"`
	SerialNumber  *string `json:"serial_number"`
	InvoiceNumber *string `json:"invoice_number"`
}

// User represents an account of the admin system
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// TokenWithUser is the login response
type TokenWithUser struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// TagLink is the attach/detach payload. Exactly one field is set.
type TagLink struct {
	TabID  *int `json:"tab_id,omitempty"`
	BoxID  *int `json:"box_id,omitempty"`
	ItemID *int `json:"item_id,omitempty"`
}
