// ABOUTME: Runner interface and options for sandboxed hook execution
// ABOUTME: Keeps the interpreter pluggable; also filters secret-looking env vars

package sandbox

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/log"
)

// DefaultTimeout caps wall-clock execution of a single hook.
const DefaultTimeout = 30 * time.Second

// Runner executes one hook against one event with a bounded capability
// surface. Implementations must return a structured result and never
// propagate a panic or exception to the caller.
type Runner interface {
	Execute(ctx context.Context, h *hook.Hook, ev *hook.Event, project *hook.ProjectInfo) hook.ExecutionResult
}

// Notifier is the host-side sink for the notify/sound/speak helpers
// exposed to hook source.
type Notifier interface {
	Notify(title, message string)
	Sound(name string)
	Speak(text string)
}

// LogNotifier routes notification helpers to the daemon log. The default
// when no desktop integration is wired in.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) { log.Info("notify: %s: %s", title, message) }
func (LogNotifier) Sound(name string)            { log.Info("sound: %s", name) }
func (LogNotifier) Speak(text string)            { log.Info("speak: %s", text) }

// Options configures a runner.
type Options struct {
	Timeout       time.Duration // zero means DefaultTimeout
	AllowHosts    []string      // fetch allowlist beyond loopback
	LLMServiceURL string        // local LLM endpoint for llmQuery
	Notifier      Notifier      // nil means LogNotifier
	Environ       []string      // nil means os.Environ()
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Notifier == nil {
		o.Notifier = LogNotifier{}
	}
	if o.Environ == nil {
		o.Environ = os.Environ()
	}
	return o
}

// secretMarkers are substrings that flag an environment variable name as
// secret-bearing. Matching vars never reach hook source.
var secretMarkers = []string{"KEY", "TOKEN", "SECRET", "PASSWORD", "CREDENTIAL", "AUTH"}

// FilterEnv converts environ ("K=V" form) to a map with secret-looking
// names removed.
func FilterEnv(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if isSecretName(name) {
			continue
		}
		out[name] = value
	}
	return out
}

func isSecretName(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range secretMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
