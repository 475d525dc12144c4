package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/models"
)

// ListTabs fetches every tab.
func (c *Client) ListTabs(ctx context.Context) ([]models.Tab, error) {
	var tabs []models.Tab
	if err := c.getJSON(ctx, "/tabs/", &tabs); err != nil {
		return nil, err
	}
	return tabs, nil
}

// GetTab fetches one tab with its fields.
func (c *Client) GetTab(ctx context.Context, id int) (*models.Tab, error) {
	var tab models.Tab
	if err := c.getJSON(ctx, "/tabs/"+itoa(id), &tab); err != nil {
		return nil, err
	}
	return &tab, nil
}

// ListBoxes fetches the boxes of a tab. The backend answers 404 for a tab
// without boxes, which is reported as an empty list.
func (c *Client) ListBoxes(ctx context.Context, tabID int) ([]models.Box, error) {
	var boxes []models.Box
	err := c.getJSON(ctx, "/boxes/"+itoa(tabID), &boxes)
	if apierrors.IsNotFound(err) {
		return []models.Box{}, nil
	}
	if err != nil {
		return nil, err
	}
	return boxes, nil
}

// SearchItems searches items of a tab by name.
func (c *Client) SearchItems(ctx context.Context, tabID int, query string, limit int) ([]models.Item, error) {
	q := url.Values{}
	q.Set("tab_id", itoa(tabID))
	q.Set("query", query)
	if limit > 0 {
		q.Set("limit", itoa(limit))
	}
	var resp models.ItemSearchResponse
	if err := c.getJSON(ctx, withQuery("/items/search", q), &resp); err != nil {
		return nil, err
	}
	items := make([]models.Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, r.AsItem(tabID))
	}
	return items, nil
}

// ListStatuses fetches the issuance statuses.
func (c *Client) ListStatuses(ctx context.Context) ([]models.Status, error) {
	var statuses []models.Status
	if err := c.getJSON(ctx, "/statuses/", &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// IssueFilter narrows the issuance history.
type IssueFilter struct {
	Page        int
	PerPage     int
	StatusID    int
	Responsible string
	Serial      string
	Invoice     string
	Item        string
	Tab         string
	Box         string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func (f IssueFilter) values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.StatusID > 0 {
		q.Set("status_id", strconv.Itoa(f.StatusID))
	}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("responsible", f.Responsible)
	set("serial", f.Serial)
	set("invoice", f.Invoice)
	set("item", f.Item)
	set("tab", f.Tab)
	set("box", f.Box)
	if f.CreatedFrom != nil {
		q.Set("created_from", f.CreatedFrom.Format(time.RFC3339))
	}
	if f.CreatedTo != nil {
		q.Set("created_to", f.CreatedTo.Format(time.RFC3339))
	}
	return q
}

// ListIssues fetches one page of the issuance history.
func (c *Client) ListIssues(ctx context.Context, filter IssueFilter) (*models.IssuePage, error) {
	var page models.IssuePage
	if err := c.getJSON(ctx, withQuery("/issues/", filter.values()), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// IssueItem records the issuance of an item.
func (c *Client) IssueItem(ctx context.Context, itemID int, req models.IssueRequest) (*models.IssueEntry, error) {
	var entry models.IssueEntry
	if err := c.doJSON(ctx, http.MethodPost, "/items/"+itoa(itemID)+"/issue", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateIssueStatus changes the status of a history entry.
func (c *Client) UpdateIssueStatus(ctx context.Context, issueID, statusID int) (*models.IssueEntry, error) {
	var entry models.IssueEntry
	body := map[string]int{"status_id": statusID}
	if err := c.doJSON(ctx, http.MethodPatch, "/issues/"+itoa(issueID)+"/status", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListUsers fetches the user accounts (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.getJSON(ctx, "/users/", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenWithUser, error) {
	reqBody := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp models.TokenWithUser
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
