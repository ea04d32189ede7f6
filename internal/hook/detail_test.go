// ABOUTME: Tests for command-detail enrichment of shell and write events
// ABOUTME: Checks dangerous-substring tags, package-manager/VCS prefixes, credential hits

package hook

import "testing"

func TestEnrichContext_DangerousCommand(t *testing.T) {
	t.Parallel()

	ev := &Event{
		Type:     PreToolUse,
		ToolName: "Bash",
		Raw:      map[string]any{"command": "rm -rf /tmp/x && chmod 777 /etc/passwd"},
	}
	EnrichContext(ev)

	detail, ok := ev.Context["commandDetail"].(map[string]any)
	if !ok {
		t.Fatal("expected commandDetail in context")
	}
	dangerous, _ := detail["dangerous"].([]string)
	if len(dangerous) < 2 {
		t.Errorf("dangerous = %v, want rm -rf and chmod 777 tagged", dangerous)
	}
	if detail["baseCommand"] != "rm" {
		t.Errorf("baseCommand = %v, want rm", detail["baseCommand"])
	}
}

func TestEnrichContext_PackageManagerAndVCS(t *testing.T) {
	t.Parallel()

	ev := &Event{
		ToolName: "Bash",
		Raw:      map[string]any{"tool_input": map[string]any{"command": "npm install left-pad"}},
	}
	EnrichContext(ev)

	detail := ev.Context["commandDetail"].(map[string]any)
	if detail["packageManager"] != "npm" {
		t.Errorf("packageManager = %v, want npm", detail["packageManager"])
	}

	ev2 := &Event{ToolName: "Bash", Raw: map[string]any{"command": "git push --force"}}
	EnrichContext(ev2)
	if ev2.Context["commandDetail"].(map[string]any)["vcs"] != "git" {
		t.Error("expected vcs=git tag")
	}
}

func TestEnrichContext_WriteCredentialScan(t *testing.T) {
	t.Parallel()

	ev := &Event{
		ToolName:  "Write",
		FilePaths: []string{"/home/u/.env"},
		Raw: map[string]any{"tool_input": map[string]any{
			"file_path": "/home/u/.env",
			"content":   "API_KEY=sk-ant-abc123\n",
		}},
	}
	EnrichContext(ev)

	detail, ok := ev.Context["writeDetail"].(map[string]any)
	if !ok {
		t.Fatal("expected writeDetail in context")
	}
	if detail["extension"] != ".env" {
		t.Errorf("extension = %v, want .env", detail["extension"])
	}
	hits, _ := detail["credentialHits"].([]string)
	if len(hits) == 0 {
		t.Error("expected credential hits for sk-ant- prefix")
	}
}

func TestEnrichContext_NonShellToolUntouched(t *testing.T) {
	t.Parallel()

	ev := &Event{ToolName: "Read", Raw: map[string]any{"command": "rm -rf /"}}
	EnrichContext(ev)
	if _, ok := ev.Context["commandDetail"]; ok {
		t.Error("Read tool should not get command enrichment")
	}
}

func TestEnrichContext_BenignCommandNoDangerTags(t *testing.T) {
	t.Parallel()

	ev := &Event{ToolName: "Bash", Raw: map[string]any{"command": "ls -la"}}
	EnrichContext(ev)

	detail := ev.Context["commandDetail"].(map[string]any)
	if _, ok := detail["dangerous"]; ok {
		t.Errorf("ls -la should carry no dangerous tags, got %v", detail["dangerous"])
	}
}
