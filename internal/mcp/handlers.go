package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wardenhq/warden/internal/capability"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/index"
	"github.com/wardenhq/warden/internal/policy"
	"github.com/wardenhq/warden/internal/retrieval"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ix   *index.Index
	exec *executor.Executor
	reg  *policy.Registry
	cfg  *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ix *index.Index, exec *executor.Executor, reg *policy.Registry, cfg *config.Config) *Handlers {
	return &Handlers{ix: ix, exec: exec, reg: reg, cfg: cfg}
}

// Request types for each tool

// ContextRequest represents the arguments for workspace_context.
type ContextRequest struct {
	Query    string `json:"query"`
	MaxFiles int    `json:"max_files,omitempty"`
	MaxLines int    `json:"max_lines,omitempty"`
}

// SymbolsRequest represents the arguments for workspace_symbols.
type SymbolsRequest struct {
	Name  string `json:"name,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ExecuteRequest represents the arguments for capability_execute.
type ExecuteRequest struct {
	Category string             `json:"category"`
	Action   string             `json:"action"`
	Payload  capability.Payload `json:"payload,omitempty"`
}

// SuggestRequest represents the arguments for capability_suggest.
type SuggestRequest struct {
	Response string `json:"response"`
}

// HistoryRequest represents the arguments for capability_history.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// PolicyUpdateRequest represents the arguments for policy_update.
type PolicyUpdateRequest struct {
	Category         string `json:"category"`
	Action           string `json:"action"`
	Enabled          bool   `json:"enabled"`
	RequiresApproval bool   `json:"requires_approval"`
}

// Handler implementations

// HandleScan handles the workspace_scan tool call.
func (h *Handlers) HandleScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.ix.ScanWorkspace(ctx)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(result)
}

// HandleContext handles the workspace_context tool call.
func (h *Handlers) HandleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeRequest[ContextRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result := retrieval.GetContext(h.ix, input.Query, retrieval.Options{
		MaxFiles: input.MaxFiles,
		MaxLines: input.MaxLines,
	})
	return successResult(result)
}

// HandleSymbols handles the workspace_symbols tool call.
func (h *Handlers) HandleSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeRequest[SymbolsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}
	nameFilter := strings.ToLower(strings.TrimSpace(input.Name))

	var matches []index.Symbol
	for name, occ := range h.ix.SymbolOccurrences() {
		if nameFilter != "" && !strings.Contains(name, nameFilter) {
			continue
		}
		for _, s := range occ {
			if input.Kind != "" && s.Kind != input.Kind {
				continue
			}
			matches = append(matches, s)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Line < matches[j].Line
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return successResult(map[string]any{
		"symbols": matches,
		"count":   len(matches),
	})
}

// HandleExecute handles the capability_execute tool call.
func (h *Handlers) HandleExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeRequest[ExecuteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	cap := &capability.Capability{
		Category: input.Category,
		Action:   input.Action,
		Payload:  input.Payload,
	}
	result, err := h.exec.Execute(ctx, cap)
	if err != nil {
		return errorResult(err), nil
	}

	// A denied or rejected execution is still a successful tool call; the
	// decision is part of the result.
	return successResult(result)
}

// HandleSuggest handles the capability_suggest tool call.
func (h *Handlers) HandleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeRequest[SuggestRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if strings.TrimSpace(input.Response) == "" {
		return errorResult(errors.NewInvalidRequest("response is required")), nil
	}

	suggestions, parseErrors := capability.ParseSuggestions(input.Response)
	return successResult(map[string]any{
		"suggestions":  suggestions,
		"parse_errors": parseErrors,
		"count":        len(suggestions),
	})
}

// HandleHistory handles the capability_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeRequest[HistoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	records := h.exec.History().Recent(input.Limit)
	// Newest first for display
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return successResult(map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// HandlePolicyList handles the policy_list tool call.
func (h *Handlers) HandlePolicyList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{
		"policies":            h.reg.List(),
		"restricted_commands": policy.RestrictedPatterns(),
	})
}

// HandlePolicyUpdate handles the policy_update tool call.
func (h *Handlers) HandlePolicyUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeRequest[PolicyUpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.reg.Update(input.Category, input.Action, input.Enabled, input.RequiresApproval); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"updated":           input.Category + "." + input.Action,
		"enabled":           input.Enabled,
		"requires_approval": input.RequiresApproval,
	})
}

// errorResult creates an MCP error result from an error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if wErr, ok := err.(*errors.WardenError); ok {
		errorObj := map[string]any{
			"code":    wErr.Code,
			"message": wErr.Message,
			"status":  wErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths
		if wErr.Code != errors.ErrInternal && wErr.Details != nil {
			errorObj["details"] = wErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
