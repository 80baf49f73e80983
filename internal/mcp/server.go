package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/index"
	"github.com/wardenhq/warden/internal/policy"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"workspace", "capability", "policy"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"workspace_scan": {
		def:     scanToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleScan },
	},
	"workspace_context": {
		def:     contextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContext },
	},
	"workspace_symbols": {
		def:     symbolsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSymbols },
	},
	"capability_execute": {
		def:     executeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExecute },
	},
	"capability_suggest": {
		def:     suggestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggest },
	},
	"capability_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"policy_list": {
		def:     policyListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePolicyList },
	},
	"policy_update": {
		def:     policyUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePolicyUpdate },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "workspace_scan" → "workspace").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with warden tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(ix *index.Index, exec *executor.Executor, reg *policy.Registry, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"warden",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(ix, exec, reg, cfg)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(ix *index.Index, exec *executor.Executor, reg *policy.Registry, cfg *config.Config, version string) error {
	s := NewServer(ix, exec, reg, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
