// Tests for the system prompt.
package prompt

import (
	"strings"
	"testing"

	"github.com/minhyannv/github-mcp-agent/pkg/tools"
)

// TestSystemPromptNamesRegisteredTools keeps the prompt aligned with the tool registry.
func TestSystemPromptNamesRegisteredTools(t *testing.T) {
	for _, name := range tools.Names {
		if !strings.Contains(System, name) {
			t.Fatalf("system prompt does not mention tool %q", name)
		}
	}
}

// TestSystemPromptTaskRecipes checks the four task patterns are present.
func TestSystemPromptTaskRecipes(t *testing.T) {
	if !containsAll(System, []string{
		"Task 1: Check README.md for typos",
		`"typo_count"`,
		"Task 2:",
		"repo:owner/repo is:open keyword",
		"language:python topic:haystack",
		"Task 3:",
		`label:"Contributions wanted!"`,
		"Task 4:",
	}) {
		t.Fatalf("prompt missing expected content:\n%s", System)
	}
}

// containsAll reports whether all substrings exist in text.
func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}
