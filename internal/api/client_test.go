package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/kutbudev/invctl/internal/api"
	"github.com/kutbudev/invctl/internal/api/apitest"
	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestRequestHeaders(t *testing.T) {
	b := apitest.New(t)
	client := b.Client(api.WithToken("abc"))
	ctx := context.Background()

	_, err := client.ListTags(ctx)
	require.NoError(t, err)
	_, err = client.CreateTag(ctx, "spare", "#ffc107")
	require.NoError(t, err)

	calls := b.Calls()
	require.Len(t, calls, 2)

	get := calls[0]
	assert.Equal(t, "GET /tags/", get.Route)
	assert.Equal(t, "Bearer abc", get.Header.Get("Authorization"))
	assert.Empty(t, get.Header.Get("Content-Type"), "no body, no content type")
	_, err = uuid.Parse(get.Header.Get("X-Request-ID"))
	assert.NoError(t, err)

	post := calls[1]
	assert.Equal(t, "application/json", post.Header.Get("Content-Type"))
	assert.NotEqual(t, get.Header.Get("X-Request-ID"), post.Header.Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(post.Body, &body))
	assert.Equal(t, "spare", body["name"])
	assert.Contains(t, body, "tab_id")
	assert.Nil(t, body["tab_id"])
}

func TestNoTokenNoAuthorization(t *testing.T) {
	b := apitest.New(t)
	_, err := b.Client().ListTabs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, b.Calls()[0].Header.Get("Authorization"))
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantMsg    string
	}{
		{name: "string detail", status: 400, body: `{"detail":"Tag already exists"}`, wantDetail: "Tag already exists", wantMsg: "Tag already exists"},
		{name: "validation list", status: 422, body: `{"detail":[{"msg":"field required"},{"msg":"bad color"}]}`, wantDetail: "field required; bad color", wantMsg: "field required; bad color"},
		{name: "plain text", status: 502, body: `Bad Gateway`, wantDetail: "Bad Gateway", wantMsg: "Bad Gateway"},
		{name: "empty body", status: 500, body: ``, wantDetail: "", wantMsg: apierrors.FallbackMessage},
		{name: "unauthorized", status: 401, body: `{"detail":"Not authenticated"}`, wantDetail: "Not authenticated", wantMsg: "Not authenticated. Run 'invctl setup login' first."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := apitest.New(t)
			b.Fail("GET /tags/", tt.status, tt.body)

			_, err := b.Client().ListTags(context.Background())
			require.Error(t, err)
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantMsg, apierrors.ParseAPIError(err))
		})
	}
}

func TestListBoxesNotFoundIsEmpty(t *testing.T) {
	b := apitest.New(t)
	boxes, err := b.Client().ListBoxes(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, boxes)
	assert.Empty(t, boxes)
}

func TestInventoryReads(t *testing.T) {
	b := apitest.New(t)
	red := b.AddTag("red", "#dc3545")
	b.AddTab(models.Tab{ID: 1, Name: "RAM", TagIDs: []int{red.ID}})
	b.AddBox(models.Box{ID: 10, TabID: 1, Name: "Shelf A", Capacity: intPtr(20)})
	b.AddItem(models.Item{ID: 100, TabID: 1, BoxID: intPtr(10), Name: "DDR4 16GB", Qty: 4})
	b.AddItem(models.Item{ID: 101, TabID: 1, Name: "DDR5 32GB", Qty: 1})
	client := b.Client()
	ctx := context.Background()

	tab, err := client.GetTab(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "RAM", tab.Name)
	assert.Equal(t, []int{red.ID}, tab.TagIDs)

	boxes, err := client.ListBoxes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, 20, *boxes[0].Capacity)

	items, err := client.SearchItems(ctx, 1, "ddr5", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 101, items[0].ID)

	last := b.Calls()[len(b.Calls())-1]
	assert.Equal(t, "/items/search?limit=10&query=ddr5&tab_id=1", last.Path)

	_, err = client.GetTab(ctx, 99)
	assert.True(t, apierrors.IsNotFound(err))
}

func TestSearchItemsWireShape(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBox  *int
		wantName string
		wantTags []int
		wantMeta string
	}{
		{
			name:     "nested box and metadata",
			body:     `{"results":[{"id":40,"name":"Память","box":{"id":7,"name":"Ящик 1","color":null},"tag_ids":[3],"metadata":{"ecc":"yes"}}],"count":1}`,
			wantBox:  intPtr(7),
			wantName: "Ящик 1",
			wantTags: []int{3},
			wantMeta: `{"ecc":"yes"}`,
		},
		{
			name:     "no box, tags as objects",
			body:     `{"results":[{"id":40,"name":"Память","box":null,"tags":[{"id":3,"name":"red","color":"#dc3545"},{"id":5,"name":"spare","color":"#ffc107"}]}]}`,
			wantTags: []int{3, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			items, err := api.New(api.WithBaseURL(srv.URL)).SearchItems(context.Background(), 2, "", 0)
			require.NoError(t, err)
			require.Len(t, items, 1)
			item := items[0]
			assert.Equal(t, 40, item.ID)
			assert.Equal(t, 2, item.TabID)
			assert.Equal(t, tt.wantBox, item.BoxID)
			assert.Equal(t, tt.wantName, item.BoxName)
			assert.Equal(t, tt.wantTags, item.TagIDs)
			if tt.wantMeta != "" {
				assert.JSONEq(t, tt.wantMeta, string(item.Metadata))
			}

			entity := item.AsEntity()
			assert.Equal(t, tt.wantBox, entity.BoxID)
		})
	}
}

func TestSearchItemsThroughBackend(t *testing.T) {
	b := apitest.New(t)
	b.AddBox(models.Box{ID: 10, TabID: 1, Name: "Shelf A"})
	b.AddItem(models.Item{ID: 100, TabID: 1, BoxID: intPtr(10), Name: "DDR4 16GB", Metadata: json.RawMessage(`{"ecc":true}`)})

	items, err := b.Client().SearchItems(context.Background(), 1, "ddr4", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].BoxID)
	assert.Equal(t, 10, *items[0].BoxID)
	assert.Equal(t, "Shelf A", items[0].BoxName)
	assert.JSONEq(t, `{"ecc":true}`, string(items[0].Metadata))
	assert.Equal(t, []int{}, items[0].TagIDs)
}

func TestAttachDetach(t *testing.T) {
	b := apitest.New(t)
	tag := b.AddTag("spare", "#ffc107")
	b.AddBox(models.Box{ID: 5, TabID: 1, Name: "Bin"})
	client := b.Client()
	ctx := context.Background()

	got, err := client.AttachTag(ctx, tag.ID, models.KindBox.Link(5))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int{5}, got.AttachedBoxes)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Calls()[0].Body, &body))
	assert.Equal(t, map[string]interface{}{"box_id": float64(5)}, body, "only the entity's field is sent")

	_, err = client.DetachTag(ctx, tag.ID, models.KindBox.Link(5))
	require.NoError(t, err)
	after, _ := b.Tag(tag.ID)
	assert.Empty(t, after.AttachedBoxes)

	_, err = client.AttachTag(ctx, 999, models.KindTab.Link(1))
	assert.True(t, apierrors.IsNotFound(err))
}

func TestLoginAndMe(t *testing.T) {
	b := apitest.New(t)
	ctx := context.Background()

	_, err := b.Client().Login(ctx, apitest.Email, "wrong")
	assert.True(t, apierrors.IsUnauthorized(err))

	resp, err := b.Client().Login(ctx, apitest.Email, apitest.Password)
	require.NoError(t, err)
	assert.Equal(t, apitest.AccessToken, resp.AccessToken)

	user, err := b.Client(api.WithToken(resp.AccessToken)).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, apitest.Email, user.Email)
}

func TestContextCancel(t *testing.T) {
	b := apitest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Client().ListTags(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActivityIndicator(t *testing.T) {
	b := apitest.New(t)
	var states []api.ActivityState
	counter := api.NewActivityCounter(func(s api.ActivityState) { states = append(states, s) })
	client := b.Client(api.WithActivity(counter))
	ctx := context.Background()

	_, err := client.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.ActivitySuccess, counter.State())

	b.Fail("GET /tags/", http.StatusInternalServerError, "")
	_, err = client.ListTags(ctx)
	require.Error(t, err)
	assert.Equal(t, api.ActivityError, counter.State())
	assert.Equal(t, 0, counter.Active())
	assert.Equal(t, []api.ActivityState{
		api.ActivityBusy, api.ActivitySuccess,
		api.ActivityBusy, api.ActivityError,
	}, states)
}

func TestActivityCounterWaitsForLastRequest(t *testing.T) {
	counter := api.NewActivityCounter(nil)
	assert.Equal(t, api.ActivityIdle, counter.State())

	counter.Start()
	counter.Start()
	counter.End(http.StatusInternalServerError)
	assert.Equal(t, api.ActivityBusy, counter.State(), "one request still in flight")
	assert.Equal(t, 1, counter.Active())

	counter.End(http.StatusOK)
	assert.Equal(t, api.ActivitySuccess, counter.State())

	counter.End(http.StatusOK)
	assert.Equal(t, 0, counter.Active(), "unmatched End never goes negative")
}
