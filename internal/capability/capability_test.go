package capability

import (
	"strings"
	"testing"

	"github.com/wardenhq/warden/internal/errors"
)

func TestCapability_Type(t *testing.T) {
	c := Capability{Category: CategoryFile, Action: ActionCreate}
	if got := c.Type(); got != "fileOperations.create" {
		t.Errorf("expected fileOperations.create, got %s", got)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		cap  Capability
	}{
		{"missing category", Capability{Action: ActionCreate}},
		{"missing action", Capability{Category: CategoryFile}},
		{"file without path", Capability{Category: CategoryFile, Action: ActionCreate}},
		{"copy without destination", Capability{Category: CategoryFile, Action: ActionCopy, Payload: Payload{Path: "a.txt"}}},
		{"terminal without command", Capability{Category: CategoryTerminal, Action: ActionExecute}},
		{"commit without message", Capability{Category: CategoryGit, Action: ActionCommit}},
		{"branchCreate without branch", Capability{Category: CategoryGit, Action: ActionBranchCreate}},
		{"empty batch", Capability{Category: CategoryFile, Action: ActionBatch}},
		{"batch entry without path", Capability{Category: CategoryFile, Action: ActionBatch, Payload: Payload{Files: []FileChange{{Action: ActionCreate}}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cap.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name string
		cap  Capability
	}{
		{"file create", Capability{Category: CategoryFile, Action: ActionCreate, Payload: Payload{Path: "a.txt", Content: "x"}}},
		{"file copy", Capability{Category: CategoryFile, Action: ActionCopy, Payload: Payload{Path: "a.txt", Destination: "b.txt"}}},
		{"terminal execute", Capability{Category: CategoryTerminal, Action: ActionExecute, Payload: Payload{Command: "ls"}}},
		{"git status", Capability{Category: CategoryGit, Action: ActionStatus}},
		{"git commit", Capability{Category: CategoryGit, Action: ActionCommit, Payload: Payload{Message: "msg"}}},
		{"unknown category passes", Capability{Category: "futureOperations", Action: "anything"}},
		{"batch", Capability{Category: CategoryFile, Action: ActionBatch, Payload: Payload{Files: []FileChange{{Action: ActionCreate, Path: "a.txt"}}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cap.Validate(); err != nil {
				t.Errorf("expected valid, got: %v", err)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		cap  Capability
		want string
	}{
		{
			"file",
			Capability{Category: CategoryFile, Action: ActionCreate, Payload: Payload{Path: "src/a.js"}},
			"src/a.js",
		},
		{
			"terminal",
			Capability{Category: CategoryTerminal, Action: ActionExecute, Payload: Payload{Command: "npm test"}},
			"npm test",
		},
		{
			"copy",
			Capability{Category: CategoryFile, Action: ActionCopy, Payload: Payload{Path: "a", Destination: "b"}},
			"a -> b",
		},
		{
			"batch",
			Capability{Category: CategoryFile, Action: ActionBatch, Payload: Payload{Files: []FileChange{{}, {}}}},
			"2 file changes",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cap.Describe()
			if !strings.Contains(got, tc.want) {
				t.Errorf("expected %q to contain %q", got, tc.want)
			}
		})
	}
}
