// ABOUTME: Command-detail enrichment: tags shell and write events before matching
// ABOUTME: Detects package-manager/VCS prefixes, dangerous substrings, credential-like content

package hook

import (
	"path/filepath"
	"strings"
)

// packageManagers are command prefixes tagged as package-manager activity.
var packageManagers = map[string]bool{
	"npm":     true,
	"npx":     true,
	"pnpm":    true,
	"yarn":    true,
	"bun":     true,
	"pip":     true,
	"pip3":    true,
	"uv":      true,
	"cargo":   true,
	"gem":     true,
	"brew":    true,
	"apt":     true,
	"apt-get": true,
}

// versionControl are command prefixes tagged as version-control activity.
var versionControl = map[string]bool{
	"git": true,
	"svn": true,
	"hg":  true,
}

// dangerousSubstrings flag shell commands worth a hook's attention. These
// tags enrich execution context only; they never drive matching.
var dangerousSubstrings = []string{
	"rm -rf",
	"rm -fr",
	"rm -r -f",
	"chmod 777",
	"chmod -r 777",
	"mkfs",
	"dd if=",
	"> /etc/",
	">> /etc/",
	"sudo rm",
	":(){",
}

// credentialPrefixes are provider API-key shapes scanned for in written
// content.
var credentialPrefixes = []string{
	"sk-ant-",
	"sk-",
	"ghp_",
	"github_pat_",
	"gho_",
	"AKIA",
	"xoxb-",
	"xoxp-",
	"AIza",
}

// shellTools and writeTools name the acting tools whose events get
// enriched.
var shellTools = map[string]bool{"bash": true, "shell": true, "run": true}
var writeTools = map[string]bool{"write": true, "edit": true, "create": true}

// EnrichContext attaches a derived command-detail projection to the event
// context. The projection is available to hook source as part of the
// event; matching decisions never consult it.
func EnrichContext(ev *Event) {
	if ev.Context == nil {
		ev.Context = map[string]any{}
	}

	tool := strings.ToLower(ev.ToolName)
	switch {
	case shellTools[tool]:
		if cmd := rawString(ev, "command"); cmd != "" {
			ev.Context["commandDetail"] = commandDetail(cmd)
		}
	case writeTools[tool]:
		path := rawString(ev, "file_path")
		if path == "" && len(ev.FilePaths) > 0 {
			path = ev.FilePaths[0]
		}
		if path != "" {
			ev.Context["writeDetail"] = writeDetail(path, rawString(ev, "content"))
		}
	}
}

// commandDetail tokenizes a shell command and tags known prefixes and
// dangerous substrings.
func commandDetail(cmd string) map[string]any {
	detail := map[string]any{"command": cmd}

	fields := strings.Fields(cmd)
	if len(fields) > 0 {
		base := fields[0]
		detail["baseCommand"] = base
		if packageManagers[base] {
			detail["packageManager"] = base
		}
		if versionControl[base] {
			detail["vcs"] = base
		}
	}

	var dangerous []string
	lower := strings.ToLower(cmd)
	for _, sub := range dangerousSubstrings {
		if strings.Contains(lower, sub) {
			dangerous = append(dangerous, sub)
		}
	}
	if len(dangerous) > 0 {
		detail["dangerous"] = dangerous
	}

	return detail
}

// writeDetail records the target extension and any credential-like
// patterns found in the payload.
func writeDetail(path, content string) map[string]any {
	detail := map[string]any{
		"path":      path,
		"extension": strings.ToLower(filepath.Ext(path)),
	}

	var hits []string
	for _, prefix := range credentialPrefixes {
		if strings.Contains(content, prefix) {
			hits = append(hits, prefix)
		}
	}
	if len(hits) > 0 {
		detail["credentialHits"] = hits
	}

	return detail
}

// rawString digs a string field out of the original hook payload, checking
// the top level first and then the nested tool_input map.
func rawString(ev *Event, key string) string {
	if ev.Raw == nil {
		return ""
	}
	if s, ok := ev.Raw[key].(string); ok {
		return s
	}
	if input, ok := ev.Raw["tool_input"].(map[string]any); ok {
		if s, ok := input[key].(string); ok {
			return s
		}
	}
	return ""
}
