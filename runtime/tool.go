package runtime

import (
	"context"
	"encoding/json"
)

// ToolFunc executes a tool invocation. args is the raw JSON argument payload
// produced by the model; the returned value is serialized into the tool
// result event.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool declaratively exposes a callable function to the model. Parameters is
// a JSON Schema object (minimal subset expected by the provider APIs).
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Run         ToolFunc
}
