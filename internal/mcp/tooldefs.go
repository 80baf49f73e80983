package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var scanToolDef = mcp.NewTool("workspace_scan",
	mcp.WithDescription("Scan the workspace and rebuild the file and symbol index. Excluded directories, oversized files, and unsupported extensions are skipped."),
)

var contextToolDef = mcp.NewTool("workspace_context",
	mcp.WithDescription("Retrieve relevance-scored workspace context for a free-text query: matching files with line excerpts, matching symbols, and an overall relevance score."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Free-text query, e.g. a user prompt or a topic"),
	),
	mcp.WithNumber("max_files",
		mcp.Description("Maximum files to return (default 8, max 50)"),
	),
	mcp.WithNumber("max_lines",
		mcp.Description("Maximum matched lines per file (default 20, max 200)"),
	),
)

var symbolsToolDef = mcp.NewTool("workspace_symbols",
	mcp.WithDescription("List indexed symbols, optionally filtered by name substring and kind."),
	mcp.WithString("name",
		mcp.Description("Case-insensitive name substring filter"),
	),
	mcp.WithString("kind",
		mcp.Description("Kind filter: function, class, method, type, variable, comment-marker"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum symbols to return (default 100)"),
	),
)

var executeToolDef = mcp.NewTool("capability_execute",
	mcp.WithDescription("Execute one capability through the policy and approval gates. The result reports the gate decision; denials and policy rejections are results, not errors."),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Capability category: fileOperations, terminalOperations, gitOperations"),
	),
	mcp.WithString("action",
		mcp.Required(),
		mcp.Description("Action within the category, e.g. create, execute, commit"),
	),
	mcp.WithObject("payload",
		mcp.Description("Action-specific parameters (path, content, command, message, ...)"),
	),
)

var suggestToolDef = mcp.NewTool("capability_suggest",
	mcp.WithDescription("Parse an LLM response for fenced ```capability blocks and return the valid capability suggestions plus per-block parse errors. Nothing is executed."),
	mcp.WithString("response",
		mcp.Required(),
		mcp.Description("The raw LLM response text to parse"),
	),
)

var historyToolDef = mcp.NewTool("capability_history",
	mcp.WithDescription("Return recent capability execution records, newest first, including denied and rejected attempts."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum records to return (default: all retained)"),
	),
)

var policyListToolDef = mcp.NewTool("policy_list",
	mcp.WithDescription("List the capability policy: every known category/action pair with enablement and approval requirements, plus the restricted command patterns."),
)

var policyUpdateToolDef = mcp.NewTool("policy_update",
	mcp.WithDescription("Update the policy for an existing category/action pair. Changes are process-scoped. Restricted command patterns cannot be changed."),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Capability category"),
	),
	mcp.WithString("action",
		mcp.Required(),
		mcp.Description("Action within the category"),
	),
	mcp.WithBoolean("enabled",
		mcp.Required(),
		mcp.Description("Whether the action may execute"),
	),
	mcp.WithBoolean("requires_approval",
		mcp.Required(),
		mcp.Description("Whether execution needs an explicit approval decision"),
	),
)
