package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/fsops"
	"github.com/wardenhq/warden/internal/index"
	"github.com/wardenhq/warden/internal/policy"
	"github.com/wardenhq/warden/internal/runner"
)

// testSetup builds handlers over a temp workspace with an auto approver.
func testSetup(t *testing.T) *Handlers {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()

	ix := index.New(root, cfg)
	reg := policy.NewRegistry()
	files := fsops.New(root, cfg.MaxPayloadBytes, false)
	proc := runner.New(root, 10*time.Second)
	exec := executor.New(reg, files, proc, nil, executor.AutoApprover{}, cfg, nil)

	return NewHandlers(ix, exec, reg, cfg)
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return tc.Text
}

func TestRegistry_ToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Fatalf("expected %d names, got %d", len(toolRegistry), len(names))
	}

	for _, name := range names {
		typ := GetTypeForTool(name)
		found := false
		for _, known := range KnownTypes {
			if typ == known {
				found = true
			}
		}
		if !found {
			t.Errorf("tool %s has unknown type %s", name, typ)
		}
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"workspace_scan", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("expected [bogus_tool], got %v", unknown)
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	unknown := ValidateDisabledTypes([]string{"workspace", "bogus"})
	if len(unknown) != 1 || unknown[0] != "bogus" {
		t.Errorf("expected [bogus], got %v", unknown)
	}
}

func TestExpandTypesToTools(t *testing.T) {
	tools := ExpandTypesToTools([]string{"policy"})
	if len(tools) != 2 {
		t.Fatalf("expected 2 policy tools, got %v", tools)
	}
	for _, tool := range tools {
		if !strings.HasPrefix(tool, "policy_") {
			t.Errorf("unexpected tool in policy type: %s", tool)
		}
	}

	if got := ExpandTypesToTools(nil); got != nil {
		t.Errorf("expected nil for no types, got %v", got)
	}
}

func TestDecodeRequest_ShapeMismatch(t *testing.T) {
	req := makeRequest(map[string]any{"limit": "ten"})

	_, err := decodeRequest[HistoryRequest](req)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for mistyped argument, got %v", err)
	}
}

func TestHandleScanAndContext(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	// Seed the workspace.
	path := filepath.Join(h.ix.Root(), "a.js")
	if err := os.WriteFile(path, []byte("function foo() {}\nfoo();\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	scanRes, err := h.HandleScan(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("scan handler error: %v", err)
	}
	if scanRes.IsError {
		t.Fatalf("scan failed: %s", resultText(t, scanRes))
	}

	ctxRes, err := h.HandleContext(ctx, makeRequest(map[string]any{"query": "foo"}))
	if err != nil {
		t.Fatalf("context handler error: %v", err)
	}

	var payload struct {
		Files []struct {
			Path string `json:"path"`
		} `json:"files"`
		RelevanceScore float64 `json:"relevance_score"`
	}
	if err := json.Unmarshal([]byte(resultText(t, ctxRes)), &payload); err != nil {
		t.Fatalf("invalid context payload: %v", err)
	}
	if len(payload.Files) != 1 || payload.Files[0].Path != "a.js" {
		t.Errorf("expected a.js in context, got %+v", payload.Files)
	}
	if payload.RelevanceScore <= 0 {
		t.Errorf("expected positive relevance, got %f", payload.RelevanceScore)
	}
}

func TestHandleContext_EmptyQuery(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandleContext(context.Background(), makeRequest(map[string]any{"query": "  "}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatal("empty query must not be a tool error")
	}

	var payload struct {
		RelevanceScore float64 `json:"relevance_score"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.RelevanceScore != 0 {
		t.Errorf("expected score 0, got %f", payload.RelevanceScore)
	}
}

func TestHandleExecute(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandleExecute(context.Background(), makeRequest(map[string]any{
		"category": "fileOperations",
		"action":   "create",
		"payload":  map[string]any{"path": "made.txt", "content": "hello"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("execute failed: %s", resultText(t, res))
	}

	var payload struct {
		Success  bool   `json:"success"`
		Decision string `json:"decision"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if !payload.Success || payload.Decision != "approved" {
		t.Errorf("unexpected result: %+v", payload)
	}

	if _, err := os.Stat(filepath.Join(h.ix.Root(), "made.txt")); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}

func TestHandleExecute_Invalid(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandleExecute(context.Background(), makeRequest(map[string]any{
		"category": "fileOperations",
		"action":   "create",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for invalid capability")
	}
	if !strings.Contains(resultText(t, res), "INVALID_REQUEST") {
		t.Errorf("expected INVALID_REQUEST code, got %s", resultText(t, res))
	}
}

func TestHandleSuggest(t *testing.T) {
	h := testSetup(t)

	response := "```capability\n" +
		`{"category": "gitOperations", "action": "status"}` + "\n" +
		"```"
	res, err := h.HandleSuggest(context.Background(), makeRequest(map[string]any{"response": response}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Count != 1 {
		t.Errorf("expected 1 suggestion, got %d", payload.Count)
	}
}

func TestHandleSuggest_MissingResponse(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandleSuggest(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Error("expected IsError for missing response")
	}
}

func TestHandleHistory(t *testing.T) {
	h := testSetup(t)

	// Run something first so history has an entry.
	if _, err := h.HandleExecute(context.Background(), makeRequest(map[string]any{
		"category": "fileOperations",
		"action":   "create",
		"payload":  map[string]any{"path": "h.txt", "content": "x"},
	})); err != nil {
		t.Fatal(err)
	}

	res, err := h.HandleHistory(context.Background(), makeRequest(map[string]any{"limit": 10}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Count != 1 {
		t.Errorf("expected 1 record, got %d", payload.Count)
	}
}

func TestHandlePolicyUpdate(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandlePolicyUpdate(context.Background(), makeRequest(map[string]any{
		"category":          "fileOperations",
		"action":            "create",
		"enabled":           false,
		"requires_approval": true,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("update failed: %s", resultText(t, res))
	}
	if h.reg.IsEnabled("fileOperations", "create") {
		t.Error("expected update to disable the action")
	}

	// Unknown pair surfaces a NOT_FOUND error payload.
	res, err = h.HandlePolicyUpdate(context.Background(), makeRequest(map[string]any{
		"category":          "bogus",
		"action":            "x",
		"enabled":           true,
		"requires_approval": false,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "NOT_FOUND") {
		t.Errorf("expected NOT_FOUND error, got %s", resultText(t, res))
	}
}

func TestHandlePolicyList(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandlePolicyList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Policies           []struct{ Category string } `json:"policies"`
		RestrictedCommands []string                    `json:"restricted_commands"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Policies) == 0 {
		t.Error("expected policy entries")
	}
	if len(payload.RestrictedCommands) == 0 {
		t.Error("expected restricted patterns")
	}
}

func TestNewServer_DisabledTools(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"policy_update"}
	cfg.DisabledTypes = []string{"capability"}

	ix := index.New(root, cfg)
	reg := policy.NewRegistry()
	exec := executor.New(reg, fsops.New(root, cfg.MaxPayloadBytes, false), nil, nil, nil, cfg, nil)

	s := NewServer(ix, exec, reg, cfg, "test")
	if s == nil {
		t.Fatal("expected server")
	}
}
