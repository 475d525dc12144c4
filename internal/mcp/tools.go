package mcp

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kutbudev/invctl/internal/app"
	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/kutbudev/invctl/internal/tags"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type EmptyInput struct{}

type CreateTagInput struct {
	Name  string `json:"name" jsonschema:"tag name, unique"`
	Color string `json:"color,omitempty" jsonschema:"hex color such as #0d6efd"`
}

type TagIDInput struct {
	TagID int `json:"tag_id" jsonschema:"id of the tag"`
}

type LinkInput struct {
	Kind  string `json:"kind" jsonschema:"entity kind: tab, box or item"`
	ID    int    `json:"id" jsonschema:"id of the tab, box or item"`
	TagID int    `json:"tag_id" jsonschema:"id of the tag"`
	TabID int    `json:"tab_id,omitempty" jsonschema:"tab that holds the box or item, used to resolve its name"`
}

type TabInput struct {
	TabID int `json:"tab_id" jsonschema:"id of the tab"`
}

// toolset holds the session the handlers share. Link operations are
// serialized because a controller edits one entity at a time.
type toolset struct {
	session *app.Session
	linkMu  sync.Mutex
}

func newToolset(session *app.Session) *toolset {
	return &toolset{session: session}
}

func boolPtr(b bool) *bool { return &b }

func registerTools(server *mcp.Server, t *toolset) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List every tag with its color and the tabs, boxes and items it is attached to.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Tags",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.handleListTags)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_tag",
		Description: "Create a new tag. REQUIRED: name. OPTIONAL: color (hex, defaults to blue).",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Create Tag",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.handleCreateTag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_tag",
		Description: "Delete a tag and detach it from everything it is bound to.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Tag",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.handleDeleteTag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "attach_tag",
		Description: "Attach a tag to a tab, box or item. Attaching an already attached tag changes nothing.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Attach Tag",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.handleAttachTag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detach_tag",
		Description: "Detach a tag from a tab, box or item. Detaching a tag that is not attached changes nothing.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Detach Tag",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.handleDetachTag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tabs",
		Description: "List inventory tabs with their attached tag ids.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Tabs",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.handleListTabs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_boxes",
		Description: "List the boxes of a tab with their attached tag ids.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Boxes",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.handleListBoxes)
}

type tagView struct {
	models.Tag
	Color string `json:"color"`
}

func tagViews(list []models.Tag) []tagView {
	out := make([]tagView, 0, len(list))
	for _, tag := range list {
		out = append(out, tagView{Tag: tag, Color: tags.SanitizeHexColor(tag.Color)})
	}
	return out
}

func (t *toolset) handleListTags(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	list, err := t.session.Store.Refresh(ctx, true)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, wrapResultAsObject(tagViews(list)), nil
}

func (t *toolset) handleCreateTag(ctx context.Context, req *mcp.CallToolRequest, input CreateTagInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	tag, err := t.session.Tags.Create(ctx, input.Name, input.Color)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, wrapResultAsObject(tag), nil
}

func (t *toolset) handleDeleteTag(ctx context.Context, req *mcp.CallToolRequest, input TagIDInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if err := t.session.Tags.Delete(ctx, input.TagID); err != nil {
		return nil, nil, toolError(err)
	}
	return nil, map[string]interface{}{"deleted": input.TagID}, nil
}

func (t *toolset) handleAttachTag(ctx context.Context, req *mcp.CallToolRequest, input LinkInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	return t.link(ctx, input, true)
}

func (t *toolset) handleDetachTag(ctx context.Context, req *mcp.CallToolRequest, input LinkInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	return t.link(ctx, input, false)
}

func (t *toolset) link(ctx context.Context, input LinkInput, attach bool) (*mcp.CallToolResult, map[string]interface{}, error) {
	kind, err := models.ParseEntityKind(input.Kind)
	if err != nil {
		return nil, nil, err
	}
	if input.TagID <= 0 {
		return nil, nil, errors.New("tag_id is required")
	}

	t.linkMu.Lock()
	defer t.linkMu.Unlock()

	if _, err := t.session.Refresher.Refresh(ctx, false, true); err != nil {
		return nil, nil, toolError(err)
	}
	entity, err := t.session.ResolveEntity(ctx, kind, input.ID, input.TabID)
	if err != nil {
		return nil, nil, toolError(err)
	}

	controller := t.session.Controllers.For(kind)
	if _, err := controller.Open(entity); err != nil {
		return nil, nil, toolError(err)
	}
	defer controller.Close()

	if attach {
		err = controller.Attach(ctx, input.TagID)
	} else {
		err = controller.Detach(ctx, input.TagID)
	}
	if err != nil {
		return nil, nil, toolError(err)
	}

	current, _ := controller.Current()
	return nil, map[string]interface{}{
		"kind":    string(kind),
		"id":      current.ID,
		"name":    current.Name,
		"tag_ids": current.TagIDs,
	}, nil
}

func (t *toolset) handleListTabs(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	tabs, err := t.session.Client.ListTabs(ctx)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, wrapResultAsObject(tabs), nil
}

func (t *toolset) handleListBoxes(ctx context.Context, req *mcp.CallToolRequest, input TabInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.TabID <= 0 {
		return nil, nil, errors.New("tab_id is required")
	}
	boxes, err := t.session.Client.ListBoxes(ctx, input.TabID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, wrapResultAsObject(boxes), nil
}

// toolError keeps the server message and drops transport noise.
func toolError(err error) error {
	msg := strings.TrimSpace(apierrors.ParseAPIError(err))
	if msg == "" {
		return err
	}
	return errors.New(msg)
}
