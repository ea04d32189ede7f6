// ABOUTME: Parser for the @key value header block at the top of hook files
// ABOUTME: Rejects hooks missing a name or recognized event type at parse time

package hook

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Recognized header keys. Unrecognized keys land in Hook.Extra verbatim
// for forward compatibility.
const (
	keyName        = "name"
	keyHook        = "hook" // legacy alias for name
	keyEvent       = "event"
	keyPattern     = "pattern"
	keyDescription = "description"
	keyScope       = "scope"   // informational only
	keyEnabled     = "enabled" // informational only; directory placement wins
	keyAuthor      = "author"
	keyVersion     = "version"
)

// ParseFile parses a hook source file into a Hook record. fileName is the
// base name; the id is the name with the extension stripped. The header is
// the leading run of lines containing @key tags; the first substantive
// non-tag line ends it. Comment markers (//, #, /*, *) around tags are
// tolerated so the header can live inside a source comment.
func ParseFile(fileName, source string) (*Hook, error) {
	h := &Hook{
		ID:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		FileName: fileName,
		Pattern:  "*",
		Source:   source,
		Extra:    map[string]string{},
	}

	eventSeen := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := stripCommentMarkers(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "@") {
			// First substantive line ends the header block.
			break
		}

		key, value := splitTag(trimmed)
		switch key {
		case keyName, keyHook:
			h.Name = value
		case keyEvent:
			ev, ok := ParseEventType(value, true)
			if !ok {
				return nil, fmt.Errorf("hook %s: unrecognized event type %q", fileName, value)
			}
			h.Event = ev
			eventSeen = true
		case keyPattern:
			if value != "" {
				h.Pattern = value
			}
		case keyDescription:
			h.Description = value
		case keyAuthor:
			h.Author = value
		case keyVersion:
			h.Version = value
		case keyScope, keyEnabled:
			// Display-only; real values come from placement.
			h.Extra[key] = value
		default:
			h.Extra[key] = value
		}
	}

	if h.Name == "" {
		return nil, fmt.Errorf("hook %s: missing required @name header", fileName)
	}
	if !eventSeen {
		return nil, fmt.Errorf("hook %s: missing required @event header", fileName)
	}

	return h, nil
}

// stripCommentMarkers removes leading/trailing comment syntax so @key tags
// can be written as // @name, # @name, or inside a /* block.
func stripCommentMarkers(line string) string {
	s := strings.TrimSpace(line)
	for _, prefix := range []string{"//", "/*", "*", "#"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "*/"))
}

// splitTag splits "@key rest of value" into (key, value).
func splitTag(s string) (string, string) {
	s = strings.TrimPrefix(s, "@")
	key, value, _ := strings.Cut(s, " ")
	return strings.ToLower(key), strings.TrimSpace(value)
}
