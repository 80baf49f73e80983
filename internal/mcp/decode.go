package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wardenhq/warden/internal/errors"
)

// decodeRequest maps tool call arguments onto one of the typed request
// structs (ContextRequest, ExecuteRequest, and so on). Arguments arrive as
// map[string]any, so they are round-tripped through JSON; a shape mismatch
// surfaces as an INVALID_REQUEST error the handler can return directly.
func decodeRequest[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, errors.NewInvalidRequest("arguments are not valid JSON: " + err.Error())
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, errors.NewInvalidRequest("arguments do not match the tool schema: " + err.Error())
	}
	return out, nil
}
