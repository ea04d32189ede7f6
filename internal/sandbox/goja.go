// ABOUTME: goja-backed hook executor: restricted globals, hard timeout, structured results
// ABOUTME: Hook source sees hookEvent/project/env/hookMeta/utils/console and nothing else

package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/log"
)

var _ Runner = (*GojaRunner)(nil)

// GojaRunner executes hook source on an embedded JavaScript interpreter.
// Each execution gets a fresh VM: no state leaks between hooks, no module
// system, no process or filesystem access.
type GojaRunner struct {
	opts  Options
	guard *hostGuard
	env   map[string]string
}

// NewGojaRunner creates a runner with the given options.
func NewGojaRunner(opts Options) *GojaRunner {
	opts = opts.withDefaults()
	return &GojaRunner{
		opts:  opts,
		guard: newHostGuard(opts.AllowHosts),
		env:   FilterEnv(opts.Environ),
	}
}

// Execute runs one hook against one event. It never panics and never
// returns an error: all failure modes are folded into the result.
func (r *GojaRunner) Execute(ctx context.Context, h *hook.Hook, ev *hook.Event, project *hook.ProjectInfo) (res hook.ExecutionResult) {
	start := time.Now()
	res = hook.ExecutionResult{
		HookID:    h.ID,
		HookName:  h.Name,
		Timestamp: start,
	}
	defer func() {
		if rec := recover(); rec != nil {
			res.Success = false
			res.Err = fmt.Sprintf("hook runtime panic: %v", rec)
		}
		res.Duration = time.Since(start)
		res.Finalize()
	}()

	vm := goja.New()
	r.install(vm, h, ev, project)

	// Hard timeout: interrupt the VM so even a spinning hook body yields
	// a failure result within the bound.
	timer := time.AfterFunc(r.opts.Timeout, func() {
		vm.Interrupt(errTimedOut)
	})
	defer timer.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(errCanceled)
		case <-watchDone:
		}
	}()

	// Wrap the source so top-level return works; the wrapper also keeps
	// hook-declared vars out of the global object.
	val, err := vm.RunString("(function() {\n" + h.Source + "\n})()")
	if err != nil {
		res.Success = false
		res.Err = runErrorMessage(err, r.opts.Timeout)
		return res
	}

	return r.coerce(res, h, val)
}

const (
	errTimedOut = "hook timed out"
	errCanceled = "hook execution canceled"
)

func runErrorMessage(err error, timeout time.Duration) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if fmt.Sprint(interrupted.Value()) == errTimedOut {
			return fmt.Sprintf("hook timed out after %v", timeout)
		}
		return errCanceled
	}

	var jsErr *goja.Exception
	if errors.As(err, &jsErr) {
		return jsErr.Error()
	}
	return err.Error()
}

// coerce converts the hook's returned value into a result. For PreToolUse
// events an object carrying an explicit do-not-continue signal becomes a
// block directive; everything else is allow with no opinion.
func (r *GojaRunner) coerce(res hook.ExecutionResult, h *hook.Hook, val goja.Value) hook.ExecutionResult {
	res.Success = true

	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return res
	}

	exported := val.Export()
	if s, ok := exported.(string); ok {
		res.Value = s
		return res
	}

	if obj, ok := exported.(map[string]any); ok {
		if directive := blockDirective(obj, h); directive != nil {
			res.Block = directive
		}
	}

	data, err := json.Marshal(exported)
	if err != nil {
		res.Success = false
		res.Block = nil
		res.Err = fmt.Sprintf("hook returned a non-serializable value: %v", err)
		return res
	}
	res.Value = string(data)
	return res
}

// blockDirective extracts an explicit block signal from a returned object:
// {continue:false, stopReason} or {decision:"block", reason}.
func blockDirective(obj map[string]any, h *hook.Hook) *hook.BlockDirective {
	reason := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := obj[k].(string); ok && s != "" {
				return s
			}
		}
		return fmt.Sprintf("blocked by hook %q", h.Name)
	}

	if cont, ok := obj["continue"].(bool); ok && !cont {
		return &hook.BlockDirective{Reason: reason("stopReason", "reason")}
	}
	if decision, ok := obj["decision"].(string); ok && strings.EqualFold(decision, "block") {
		return &hook.BlockDirective{Reason: reason("reason", "stopReason")}
	}
	return nil
}

// install sets the read-only global bindings. Hook source cannot import
// modules or reach the host beyond this surface.
func (r *GojaRunner) install(vm *goja.Runtime, h *hook.Hook, ev *hook.Event, project *hook.ProjectInfo) {
	vm.Set("hookEvent", eventBinding(ev))

	if project != nil {
		vm.Set("project", map[string]any{
			"name":   project.Name,
			"path":   project.Path,
			"config": project.Config,
		})
	} else {
		vm.Set("project", nil)
	}

	vm.Set("env", r.env)
	vm.Set("hookMeta", map[string]any{
		"id":    h.ID,
		"name":  h.Name,
		"scope": string(h.Scope),
	})

	prefix := fmt.Sprintf("hook %s", h.ID)
	vm.Set("console", map[string]any{
		"log":   func(args ...any) { log.Info("%s: %s", prefix, joinArgs(args)) },
		"warn":  func(args ...any) { log.Warn("%s: %s", prefix, joinArgs(args)) },
		"error": func(args ...any) { log.Error("%s: %s", prefix, joinArgs(args)) },
	})

	vm.Set("utils", map[string]any{
		"log": func(level, msg string) {
			switch strings.ToLower(level) {
			case "debug":
				log.Debug("%s: %s", prefix, msg)
			case "warn":
				log.Warn("%s: %s", prefix, msg)
			case "error":
				log.Error("%s: %s", prefix, msg)
			default:
				log.Info("%s: %s", prefix, msg)
			}
		},
		"sleep": func(ms int) {
			if ms < 0 {
				return
			}
			// Bounded by the VM interrupt: an over-long sleep is clipped
			// just past the timeout so the interrupt is already pending
			// when control returns to JS.
			d := time.Duration(ms) * time.Millisecond
			if d > r.opts.Timeout {
				d = r.opts.Timeout + 50*time.Millisecond
			}
			time.Sleep(d)
		},
		"fetch": func(rawURL string, opts ...map[string]any) map[string]any {
			var method, body string
			if len(opts) > 0 {
				method, _ = opts[0]["method"].(string)
				body, _ = opts[0]["body"].(string)
			}
			out, err := r.guard.fetch(rawURL, method, body)
			if err != nil {
				panic(vm.ToValue(err.Error()))
			}
			return out
		},
		"llmQuery": func(prompt string) string {
			text, err := r.llmQuery(prompt)
			if err != nil {
				panic(vm.ToValue(err.Error()))
			}
			return text
		},
		"notify": func(title, message string) { r.opts.Notifier.Notify(title, message) },
		"sound":  func(name string) { r.opts.Notifier.Sound(name) },
		"speak":  func(text string) { r.opts.Notifier.Speak(text) },
	})
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}

// eventBinding projects an event into the shape hook source sees.
func eventBinding(ev *hook.Event) map[string]any {
	return map[string]any{
		"id":               ev.ID,
		"eventType":        string(ev.Type),
		"toolName":         ev.ToolName,
		"filePaths":        ev.FilePaths,
		"context":          ev.Context,
		"timestamp":        ev.Timestamp.UTC().Format(time.RFC3339Nano),
		"projectPath":      ev.ProjectPath,
		"sessionId":        ev.SessionID,
		"originalHookData": ev.Raw,
	}
}

// llmQuery forwards a prompt to the configured local language-model
// service and returns its text response.
func (r *GojaRunner) llmQuery(prompt string) (string, error) {
	if r.opts.LLMServiceURL == "" {
		return "", errors.New("no LLM service configured")
	}
	if err := r.guard.check(r.opts.LLMServiceURL); err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]any{"prompt": prompt, "stream": false})
	if err != nil {
		return "", err
	}

	resp, err := r.guard.client(r.opts.Timeout).Post(
		r.opts.LLMServiceURL, "application/json", strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("llm query: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("llm service returned HTTP %d", resp.StatusCode)
	}

	// Common local-service shapes first, raw body as fallback.
	var parsed struct {
		Response string `json:"response"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Response != "" {
			return parsed.Response, nil
		}
		if parsed.Text != "" {
			return parsed.Text, nil
		}
	}
	return string(data), nil
}
