package capability

import (
	"testing"
)

func TestParseSuggestions_Single(t *testing.T) {
	response := "I'll create that file for you.\n\n" +
		"```capability\n" +
		`{"category": "fileOperations", "action": "create", "payload": {"path": "src/new.js", "content": "export {};"}}` + "\n" +
		"```\n\nLet me know if you want changes."

	caps, errs := ParseSuggestions(response)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(caps) != 1 {
		t.Fatalf("expected 1 capability, got %d", len(caps))
	}
	if caps[0].Category != CategoryFile || caps[0].Action != ActionCreate {
		t.Errorf("unexpected capability: %+v", caps[0])
	}
	if caps[0].Payload.Path != "src/new.js" {
		t.Errorf("expected payload path src/new.js, got %s", caps[0].Payload.Path)
	}
}

func TestParseSuggestions_TaggedInfoString(t *testing.T) {
	response := "```json capability\n" +
		`{"category": "terminalOperations", "action": "execute", "payload": {"command": "npm test"}}` + "\n" +
		"```"

	caps, errs := ParseSuggestions(response)
	if len(errs) != 0 || len(caps) != 1 {
		t.Fatalf("expected 1 capability from tagged block, got %d caps %d errors", len(caps), len(errs))
	}
}

func TestParseSuggestions_MalformedBlockIsolated(t *testing.T) {
	response := "```capability\n" +
		`{"category": "fileOperations", "action": "create", "payload": {"path": "a.txt"}}` + "\n" +
		"```\n\n" +
		"```capability\n" +
		"{not valid json\n" +
		"```\n\n" +
		"```capability\n" +
		`{"category": "gitOperations", "action": "commit", "payload": {"message": "fix"}}` + "\n" +
		"```"

	caps, errs := ParseSuggestions(response)
	if len(caps) != 2 {
		t.Errorf("expected 2 valid capabilities, got %d", len(caps))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(errs))
	}
	if errs[0].Block != 2 {
		t.Errorf("expected failure in block 2, got block %d", errs[0].Block)
	}
}

func TestParseSuggestions_InvalidCapabilityReported(t *testing.T) {
	// Valid JSON but fails validation: file action without a path.
	response := "```capability\n" +
		`{"category": "fileOperations", "action": "create", "payload": {}}` + "\n" +
		"```"

	caps, errs := ParseSuggestions(response)
	if len(caps) != 0 {
		t.Errorf("expected no capabilities, got %d", len(caps))
	}
	if len(errs) != 1 {
		t.Errorf("expected 1 parse error, got %d", len(errs))
	}
}

func TestParseSuggestions_IgnoresPlainCodeBlocks(t *testing.T) {
	response := "```js\n" +
		`{"category": "fileOperations", "action": "create"}` + "\n" +
		"```\n\nplain prose, no capability blocks"

	caps, errs := ParseSuggestions(response)
	if len(caps) != 0 || len(errs) != 0 {
		t.Errorf("untagged blocks must be ignored: %d caps, %d errors", len(caps), len(errs))
	}
}

func TestParseSuggestions_Empty(t *testing.T) {
	caps, errs := ParseSuggestions("just a plain answer with no blocks")
	if len(caps) != 0 || len(errs) != 0 {
		t.Errorf("expected empty results, got %d caps %d errors", len(caps), len(errs))
	}
}
