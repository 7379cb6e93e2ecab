package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFrom(t *testing.T) {
	type args struct {
		Account string   `json:"account" description:"Account name."`
		Limit   int      `json:"limit,omitempty"`
		Verbose *bool    `json:"verbose"`
		Tags    []string `json:"tags,omitempty"`
		ignored string
		Skipped string   `json:"-"`
	}

	schema := SchemaFrom(args{})
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string", "description": "Account name."}, props["account"])
	assert.Equal(t, map[string]any{"type": "integer"}, props["limit"])
	assert.Equal(t, map[string]any{"type": "boolean"}, props["verbose"])
	assert.Equal(t, map[string]any{"type": "array"}, props["tags"])
	assert.NotContains(t, props, "ignored")
	assert.NotContains(t, props, "Skipped")

	// Optional (omitempty or pointer) fields are not required.
	assert.Equal(t, []string{"account"}, schema["required"])
}

func TestSchemaFrom_NonStruct(t *testing.T) {
	schema := SchemaFrom("not a struct")
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
	assert.NotContains(t, schema, "required")
}
