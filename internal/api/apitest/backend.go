// Package apitest runs an in-memory inventory backend on httptest for
// tests of the client and everything built on it.
package apitest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kutbudev/invctl/internal/api"
	"github.com/kutbudev/invctl/internal/models"
)

// Call is one request the backend received.
type Call struct {
	Method string
	Path   string
	Route  string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// Gate holds the requests of one route until released.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	enter   sync.Once
	done    sync.Once
}

// Entered is closed once a request reached the gate.
func (g *Gate) Entered() <-chan struct{} { return g.entered }

// Release lets held and future requests through.
func (g *Gate) Release() { g.done.Do(func() { close(g.release) }) }

// Backend is a fake of the inventory REST API.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	tags      []models.Tag
	tabs      []models.Tab
	boxes     []models.Box
	items     []models.Item
	statuses  []models.Status
	nextTagID int
	calls     []Call
	failures  map[string]failure
	gates     map[string]*Gate
}

// New starts a backend that is closed with the test.
func New(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		nextTagID: 1,
		failures:  map[string]failure{},
		gates:     map[string]*Gate{},
	}

	r := gin.New()
	r.Use(b.record)

	r.GET("/tags/", b.listTags)
	r.POST("/tags/", b.createTag)
	r.PUT("/tags/:id", b.updateTag)
	r.DELETE("/tags/:id", b.deleteTag)
	r.POST("/tags/:id/attach", b.linkTag(true))
	r.POST("/tags/:id/detach", b.linkTag(false))

	r.GET("/tabs/", b.listTabs)
	r.GET("/tabs/:id", b.getTab)
	r.GET("/boxes/:tab_id", b.listBoxes)
	r.GET("/items/search", b.searchItems)
	r.GET("/statuses/", b.listStatuses)

	r.POST("/auth/login", b.login)
	r.GET("/auth/me", b.me)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the backend.
func (b *Backend) URL() string { return b.Server.URL }

// Client returns a client pointed at the backend.
func (b *Backend) Client(opts ...api.Option) *api.Client {
	return api.New(append([]api.Option{api.WithBaseURL(b.URL())}, opts...)...)
}

// AddTag seeds a tag and returns it with its id.
func (b *Backend) AddTag(name, color string) models.Tag {
	b.mu.Lock()
	defer b.mu.Unlock()
	tag := models.Tag{ID: b.nextTagID, Name: name, Color: color}
	b.nextTagID++
	b.tags = append(b.tags, tag)
	return tag
}

// AddTab seeds a tab.
func (b *Backend) AddTab(tab models.Tab) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tabs = append(b.tabs, tab)
	for _, tagID := range tab.TagIDs {
		b.bindLocked(tagID, models.KindTab, tab.ID, true)
	}
}

// AddBox seeds a box.
func (b *Backend) AddBox(box models.Box) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boxes = append(b.boxes, box)
	for _, tagID := range box.TagIDs {
		b.bindLocked(tagID, models.KindBox, box.ID, true)
	}
}

// AddItem seeds an item.
func (b *Backend) AddItem(item models.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, item)
	for _, tagID := range item.TagIDs {
		b.bindLocked(tagID, models.KindItem, item.ID, true)
	}
}

// AddStatus seeds an issuance status.
func (b *Backend) AddStatus(st models.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, st)
}

// Fail makes every request to route ("POST /tags/:id/attach") answer
// status with body until Recover is called.
func (b *Backend) Fail(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, body: body}
}

// Recover undoes Fail.
func (b *Backend) Recover(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

// Hold blocks requests to route until the returned gate is released.
func (b *Backend) Hold(route string) *Gate {
	g := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	b.mu.Lock()
	b.gates[route] = g
	b.mu.Unlock()
	return g
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount counts the requests that hit route.
func (b *Backend) CallCount(route string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Route == route {
			n++
		}
	}
	return n
}

// Tag returns the backend's view of one tag.
func (b *Backend) Tag(id int) (models.Tag, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.tagIndexLocked(id); i >= 0 {
		return b.tags[i], true
	}
	return models.Tag{}, false
}

func (b *Backend) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	route := c.Request.Method + " " + c.FullPath()

	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method: c.Request.Method,
		Path:   c.Request.URL.RequestURI(),
		Route:  route,
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	fail, failing := b.failures[route]
	gate := b.gates[route]
	b.mu.Unlock()

	if gate != nil {
		gate.enter.Do(func() { close(gate.entered) })
		select {
		case <-gate.release:
		case <-c.Request.Context().Done():
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
	}
	if failing {
		c.Data(fail.status, "application/json", []byte(fail.body))
		c.Abort()
		return
	}
	c.Next()
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (b *Backend) tagIndexLocked(id int) int {
	for i, tag := range b.tags {
		if tag.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) listTags(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Tag, len(b.tags))
	copy(out, b.tags)
	c.JSON(http.StatusOK, out)
}

type createTagInput struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (b *Backend) createTag(c *gin.Context) {
	var input createTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tag := range b.tags {
		if strings.EqualFold(tag.Name, input.Name) {
			detail(c, http.StatusBadRequest, "Tag already exists")
			return
		}
	}
	tag := models.Tag{ID: b.nextTagID, Name: input.Name, Color: input.Color}
	b.nextTagID++
	b.tags = append(b.tags, tag)
	c.JSON(http.StatusOK, tag)
}

func (b *Backend) updateTag(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input map[string]string
	if err := c.ShouldBindJSON(&input); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.tagIndexLocked(id)
	if i < 0 {
		detail(c, http.StatusNotFound, "Tag not found")
		return
	}
	if v, ok := input["name"]; ok {
		b.tags[i].Name = v
	}
	if v, ok := input["color"]; ok {
		b.tags[i].Color = v
	}
	c.JSON(http.StatusOK, b.tags[i])
}

func (b *Backend) deleteTag(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.tagIndexLocked(id)
	if i < 0 {
		detail(c, http.StatusNotFound, "Tag not found")
		return
	}
	tag := b.tags[i]
	for _, tabID := range tag.AttachedTabs {
		b.setEntityTagLocked(models.KindTab, tabID, id, false)
	}
	for _, boxID := range tag.AttachedBoxes {
		b.setEntityTagLocked(models.KindBox, boxID, id, false)
	}
	for _, itemID := range tag.AttachedItems {
		b.setEntityTagLocked(models.KindItem, itemID, id, false)
	}
	b.tags = append(b.tags[:i], b.tags[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (b *Backend) linkTag(attach bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var link models.TagLink
		if err := c.ShouldBindJSON(&link); err != nil {
			detail(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		var (
			kind     models.EntityKind
			entityID int
		)
		switch {
		case link.TabID != nil:
			kind, entityID = models.KindTab, *link.TabID
		case link.BoxID != nil:
			kind, entityID = models.KindBox, *link.BoxID
		case link.ItemID != nil:
			kind, entityID = models.KindItem, *link.ItemID
		default:
			detail(c, http.StatusUnprocessableEntity, "tab_id, box_id or item_id is required")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		i := b.tagIndexLocked(id)
		if i < 0 {
			detail(c, http.StatusNotFound, "Tag not found")
			return
		}
		b.bindLocked(id, kind, entityID, attach)
		c.JSON(http.StatusOK, b.tags[i])
	}
}

// bindLocked updates both the tag bindings and the entity's tag ids.
func (b *Backend) bindLocked(tagID int, kind models.EntityKind, entityID int, attach bool) {
	i := b.tagIndexLocked(tagID)
	if i < 0 {
		return
	}
	tag := &b.tags[i]
	switch kind {
	case models.KindTab:
		tag.AttachedTabs = toggle(tag.AttachedTabs, entityID, attach)
	case models.KindBox:
		tag.AttachedBoxes = toggle(tag.AttachedBoxes, entityID, attach)
	case models.KindItem:
		tag.AttachedItems = toggle(tag.AttachedItems, entityID, attach)
	}
	b.setEntityTagLocked(kind, entityID, tagID, attach)
}

func (b *Backend) setEntityTagLocked(kind models.EntityKind, entityID, tagID int, attach bool) {
	switch kind {
	case models.KindTab:
		for i := range b.tabs {
			if b.tabs[i].ID == entityID {
				b.tabs[i].TagIDs = toggle(b.tabs[i].TagIDs, tagID, attach)
			}
		}
	case models.KindBox:
		for i := range b.boxes {
			if b.boxes[i].ID == entityID {
				b.boxes[i].TagIDs = toggle(b.boxes[i].TagIDs, tagID, attach)
			}
		}
	case models.KindItem:
		for i := range b.items {
			if b.items[i].ID == entityID {
				b.items[i].TagIDs = toggle(b.items[i].TagIDs, tagID, attach)
			}
		}
	}
}

func toggle(ids []int, id int, on bool) []int {
	out := make([]int, 0, len(ids)+1)
	found := false
	for _, v := range ids {
		if v == id {
			found = true
			if !on {
				continue
			}
		}
		out = append(out, v)
	}
	if on && !found {
		out = append(out, id)
	}
	return out
}

func (b *Backend) listTabs(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Tab, len(b.tabs))
	copy(out, b.tabs)
	c.JSON(http.StatusOK, out)
}

func (b *Backend) getTab(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tab := range b.tabs {
		if tab.ID == id {
			c.JSON(http.StatusOK, tab)
			return
		}
	}
	detail(c, http.StatusNotFound, "Tab not found")
}

func (b *Backend) listBoxes(c *gin.Context) {
	tabID, ok := paramID(c, "tab_id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Box
	for _, box := range b.boxes {
		if box.TabID == tabID {
			out = append(out, box)
		}
	}
	if len(out) == 0 {
		detail(c, http.StatusNotFound, "No boxes found")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) searchItems(c *gin.Context) {
	tabID, err := strconv.Atoi(c.Query("tab_id"))
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "tab_id is required")
		return
	}
	query := strings.ToLower(c.Query("query"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	results := []gin.H{}
	for _, item := range b.items {
		if item.TabID != tabID || !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		results = append(results, b.searchRowLocked(item))
		if len(results) == limit {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// searchRowLocked renders an item the way /items/search does: the box as a
// nested object and the metadata under "metadata".
func (b *Backend) searchRowLocked(item models.Item) gin.H {
	var box interface{}
	if item.BoxID != nil {
		ref := gin.H{"id": *item.BoxID, "name": nil}
		for _, bx := range b.boxes {
			if bx.ID == *item.BoxID {
				ref["name"] = bx.Name
			}
		}
		box = ref
	}
	tagIDs := item.TagIDs
	if tagIDs == nil {
		tagIDs = []int{}
	}
	return gin.H{
		"id":       item.ID,
		"name":     item.Name,
		"box":      box,
		"tag_ids":  tagIDs,
		"metadata": item.Metadata,
	}
}

func (b *Backend) listStatuses(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Status, len(b.statuses))
	copy(out, b.statuses)
	c.JSON(http.StatusOK, out)
}

// Credentials accepted by the fake login.
const (
	Email       = "admin@example.com"
	Password    = "secret"
	AccessToken = "token-123"
)

func (b *Backend) login(c *gin.Context) {
	var input map[string]string
	if err := c.ShouldBindJSON(&input); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if input["email"] != Email || input["password"] != Password {
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	c.JSON(http.StatusOK, models.TokenWithUser{
		AccessToken: AccessToken,
		TokenType:   "bearer",
		User:        models.User{ID: 1, Email: Email, Role: "admin", IsActive: true},
	})
}

func (b *Backend) me(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+AccessToken {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, models.User{ID: 1, Email: Email, Role: "admin", IsActive: true})
}
