package api

import (
	"context"
	"net/http"

	"github.com/kutbudev/invctl/internal/models"
)

// ListTags fetches every tag with its bindings.
func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.getJSON(ctx, "/tags/", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates a tag that is not attached to anything yet.
func (c *Client) CreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	reqBody := map[string]interface{}{
		"name":    name,
		"color":   color,
		"tab_id":  nil,
		"box_id":  nil,
		"item_id": nil,
	}
	var tag models.Tag
	if err := c.doJSON(ctx, http.MethodPost, "/tags/", reqBody, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// UpdateTag renames or recolors a tag. Empty values are left unchanged.
func (c *Client) UpdateTag(ctx context.Context, id int, name, color string) (*models.Tag, error) {
	reqBody := map[string]string{}
	if name != "" {
		reqBody["name"] = name
	}
	if color != "" {
		reqBody["color"] = color
	}
	var tag models.Tag
	if err := c.doJSON(ctx, http.MethodPut, "/tags/"+itoa(id), reqBody, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag deletes a tag and detaches it everywhere.
func (c *Client) DeleteTag(ctx context.Context, id int) error {
	_, err := c.makeRequest(ctx, http.MethodDelete, "/tags/"+itoa(id), nil)
	return err
}

// AttachTag binds a tag to the entity named by link. The returned tag may
// be nil when the backend answers without a body.
func (c *Client) AttachTag(ctx context.Context, tagID int, link models.TagLink) (*models.Tag, error) {
	return c.linkTag(ctx, tagID, "attach", link)
}

// DetachTag removes the binding named by link.
func (c *Client) DetachTag(ctx context.Context, tagID int, link models.TagLink) (*models.Tag, error) {
	return c.linkTag(ctx, tagID, "detach", link)
}

func (c *Client) linkTag(ctx context.Context, tagID int, action string, link models.TagLink) (*models.Tag, error) {
	var tag *models.Tag
	if err := c.doJSON(ctx, http.MethodPost, "/tags/"+itoa(tagID)+"/"+action, link, &tag); err != nil {
		return nil, err
	}
	return tag, nil
}
