package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kutbudev/invctl/internal/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `invctl - inventory tags

Tools operate on the tabs, boxes and items of the inventory backend.

## Quick Reference
- LIST: list_tags() shows every tag with its bindings
- TAG: attach_tag(kind: "box", id: 12, tag_id: 3)
- UNTAG: detach_tag(kind: "item", id: 40, tag_id: 3)
- NEW: create_tag(name: "faulty", color: "#dc3545")

Attach and detach are idempotent on the entity's tag set.`

// NewServer builds the MCP server with every tool registered.
func NewServer(session *app.Session, version string) (*mcp.Server, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "invctl",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerTools(server, newToolset(session))
	return server, nil
}

// ServeStdio starts the MCP server over stdio
func ServeStdio(ctx context.Context, session *app.Session, version string) error {
	server, err := NewServer(session, version)
	if err != nil {
		return err
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

// wrapResultAsObject ensures the result is always an object (not array or null)
func wrapResultAsObject(result interface{}) map[string]interface{} {
	if obj, ok := result.(map[string]interface{}); ok {
		return obj
	}

	var decoded interface{}
	if b, err := json.Marshal(result); err == nil {
		_ = json.Unmarshal(b, &decoded)
	}

	switch v := decoded.(type) {
	case map[string]interface{}:
		return v
	case []interface{}:
		return map[string]interface{}{"items": v, "count": len(v)}
	default:
		return map[string]interface{}{"items": []interface{}{}, "count": 0}
	}
}
