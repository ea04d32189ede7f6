// ABOUTME: Event pipeline orchestrator: validation, sync PreToolUse path, async queue drain
// ABOUTME: PreToolUse failures always resolve to allow; per-hook failures never stop siblings

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/eventbus"
	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/hookstore"
	"github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/logstore"
	"github.com/agentdeck/agentdeck/internal/registry"
	"github.com/agentdeck/agentdeck/internal/sandbox"
)

// RawEvent is the ingress payload shape.
type RawEvent struct {
	EventType        string         `json:"eventType"`
	ToolName         string         `json:"toolName,omitempty"`
	FilePaths        []string       `json:"filePaths,omitempty"`
	Context          map[string]any `json:"context,omitempty"`
	Timestamp        string         `json:"timestamp,omitempty"`
	ProjectPath      string         `json:"projectPath,omitempty"`
	SessionID        string         `json:"sessionId,omitempty"`
	OriginalHookData map[string]any `json:"originalHookData,omitempty"`
}

// Response is the envelope returned to the ingress caller.
type Response struct {
	Success       bool                   `json:"success"`
	EventID       string                 `json:"eventId,omitempty"`
	Continue      bool                   `json:"continue"`
	StopReason    string                 `json:"stopReason,omitempty"`
	HookResults   []hook.ExecutionResult `json:"hookResults,omitempty"`
	QueuePosition int                    `json:"queuePosition,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// NoticeKind classifies lifecycle notifications.
type NoticeKind string

const (
	NoticeQueued         NoticeKind = "event_queued"
	NoticeHookExecuted   NoticeKind = "hook_executed"
	NoticeEventProcessed NoticeKind = "event_processed"
	NoticeError          NoticeKind = "pipeline_error"
)

// Notice is published on the pipeline bus for observers (ingress, CLI, UI).
type Notice struct {
	Kind          NoticeKind
	EventID       string
	EventType     hook.EventType
	HookID        string
	HookName      string
	HooksExecuted int
	Blocked       bool
	Err           string
}

// defaultDrainInterval is the fallback wake interval of the drain worker.
// New-item arrival wakes it immediately; the ticker is a safety net.
const defaultDrainInterval = 500 * time.Millisecond

// Pipeline validates, routes, and executes hook events.
type Pipeline struct {
	store  *hookstore.Store
	runner sandbox.Runner
	logs   *logstore.Store
	reg    registry.Registry
	bus    *eventbus.Bus[Notice]

	interval time.Duration

	queueMu sync.Mutex
	queue   []*hook.Event

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// Options configures optional pipeline collaborators.
type Options struct {
	DrainInterval time.Duration
	Registry      registry.Registry // nil disables project-name enrichment
}

// New creates a pipeline. Call Start to begin draining the async queue.
func New(store *hookstore.Store, runner sandbox.Runner, logs *logstore.Store, opts Options) *Pipeline {
	interval := opts.DrainInterval
	if interval <= 0 {
		interval = defaultDrainInterval
	}
	return &Pipeline{
		store:    store,
		runner:   runner,
		logs:     logs,
		reg:      opts.Registry,
		bus:      eventbus.New[Notice](),
		interval: interval,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Notices exposes the lifecycle notification bus.
func (p *Pipeline) Notices() *eventbus.Bus[Notice] {
	return p.bus
}

// Start launches the drain worker.
func (p *Pipeline) Start() {
	p.startOnce.Do(func() {
		go p.drainLoop()
	})
}

// Stop halts the drain worker. Queued events that have not started are
// discarded; the in-flight event, if any, finishes first.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		<-p.stopped
	})
}

// Receive validates and routes one raw event. PreToolUse is processed
// inline and its response says whether the action may continue; all other
// types are queued and acknowledged immediately.
func (p *Pipeline) Receive(raw RawEvent) Response {
	if raw.EventType == "" {
		return Response{Success: false, Continue: true, Error: "missing eventType"}
	}
	typ, ok := hook.ParseEventType(raw.EventType, false)
	if !ok {
		// Malformed events must never block legitimate tool use.
		return Response{Success: false, Continue: true, Error: fmt.Sprintf("unrecognized event type %q", raw.EventType)}
	}

	ev := p.buildEvent(typ, raw)

	if typ == hook.PreToolUse {
		return p.processSync(ev)
	}

	pos := p.enqueue(ev)
	p.bus.Publish(Notice{Kind: NoticeQueued, EventID: ev.ID, EventType: ev.Type})
	return Response{Success: true, EventID: ev.ID, Continue: true, QueuePosition: pos}
}

func (p *Pipeline) buildEvent(typ hook.EventType, raw RawEvent) *hook.Event {
	ts := time.Now()
	if raw.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw.Timestamp); err == nil {
			ts = parsed
		}
	}

	ev := &hook.Event{
		ID:          uuid.NewString(),
		Type:        typ,
		ToolName:    raw.ToolName,
		FilePaths:   raw.FilePaths,
		Context:     raw.Context,
		Timestamp:   ts,
		ProjectPath: raw.ProjectPath,
		SessionID:   raw.SessionID,
		Raw:         raw.OriginalHookData,
	}
	hook.EnrichContext(ev)
	return ev
}

// processSync handles the one event type that can block a tool call. Any
// internal failure resolves to allow: failing closed would freeze all tool
// use and an escaped panic would take the host down.
func (p *Pipeline) processSync(ev *hook.Event) (resp Response) {
	resp = Response{Success: true, EventID: ev.ID, Continue: true}
	defer func() {
		if r := recover(); r != nil {
			resp = Response{
				Success:  false,
				EventID:  ev.ID,
				Continue: true,
				Error:    fmt.Sprintf("pipeline error: %v", r),
			}
			p.bus.Publish(Notice{Kind: NoticeError, EventID: ev.ID, EventType: ev.Type, Err: fmt.Sprint(r)})
		}
	}()

	results := p.runMatched(ev)
	resp.HookResults = results

	for _, res := range results {
		if res.Block != nil {
			resp.Continue = false
			resp.StopReason = res.Block.Reason
			break // first block in scan order wins the reason
		}
	}

	p.bus.Publish(Notice{
		Kind:          NoticeEventProcessed,
		EventID:       ev.ID,
		EventType:     ev.Type,
		HooksExecuted: len(results),
		Blocked:       !resp.Continue,
	})
	return resp
}

// runMatched executes every matched hook sequentially in scan order and
// appends each outcome to the log store. A failed hook never prevents the
// remaining hooks from running.
func (p *Pipeline) runMatched(ev *hook.Event) []hook.ExecutionResult {
	matched := hook.Select(p.store.Candidates(ev.ProjectPath), ev)
	info := p.projectInfo(ev.ProjectPath)

	var results []hook.ExecutionResult
	for _, h := range matched {
		res := p.runner.Execute(context.Background(), h, ev, info)
		results = append(results, res)

		if p.logs != nil {
			p.logs.Append(res)
		}
		p.bus.Publish(Notice{
			Kind:      NoticeHookExecuted,
			EventID:   ev.ID,
			EventType: ev.Type,
			HookID:    res.HookID,
			HookName:  res.HookName,
			Err:       res.Err,
		})
	}
	return results
}

// projectInfo resolves an event's project path to registry metadata.
func (p *Pipeline) projectInfo(projectPath string) *hook.ProjectInfo {
	if p.reg == nil || projectPath == "" {
		return nil
	}
	for name, proj := range p.reg.Projects() {
		if proj.Path == projectPath {
			return &hook.ProjectInfo{Name: name, Path: proj.Path, Config: proj.Config}
		}
	}
	return &hook.ProjectInfo{Path: projectPath}
}

func (p *Pipeline) enqueue(ev *hook.Event) int {
	p.queueMu.Lock()
	p.queue = append(p.queue, ev)
	pos := len(p.queue)
	p.queueMu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return pos
}

func (p *Pipeline) dequeue() *hook.Event {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	ev := p.queue[0]
	p.queue = p.queue[1:]
	return ev
}

// QueueLen reports the number of queued, not-yet-started events.
func (p *Pipeline) QueueLen() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return len(p.queue)
}

// ClearQueue discards all not-yet-started events and returns how many were
// dropped. In-flight execution is unaffected.
func (p *Pipeline) ClearQueue() int {
	p.queueMu.Lock()
	n := len(p.queue)
	p.queue = nil
	p.queueMu.Unlock()
	return n
}

// drainLoop is the single drain worker: draining state lives in this
// goroutine, so overlapping timer ticks cannot double-drain. Events are
// processed one at a time in arrival order; a slow hook delays everything
// behind it.
func (p *Pipeline) drainLoop() {
	defer close(p.stopped)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
		case <-ticker.C:
		}

		for {
			select {
			case <-p.stop:
				return
			default:
			}

			ev := p.dequeue()
			if ev == nil {
				break
			}
			p.processAsync(ev)
		}
	}
}

// processAsync runs one queued event. Internal failures surface as an
// error notice; they never crash the worker.
func (p *Pipeline) processAsync(ev *hook.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: async processing of event %s failed: %v", ev.ID, r)
			p.bus.Publish(Notice{Kind: NoticeError, EventID: ev.ID, EventType: ev.Type, Err: fmt.Sprint(r)})
		}
	}()

	results := p.runMatched(ev)
	p.bus.Publish(Notice{
		Kind:          NoticeEventProcessed,
		EventID:       ev.ID,
		EventType:     ev.Type,
		HooksExecuted: len(results),
	})
}

// RegisterProject loads a project's hook set and starts its watcher. This
// is the only place scope-to-path binding changes at runtime.
func (p *Pipeline) RegisterProject(path string) error {
	if err := p.store.LoadAll(hook.ScopeProject, path); err != nil {
		return fmt.Errorf("load project hooks: %w", err)
	}
	if err := p.store.Watch(hook.ScopeProject, path); err != nil {
		return fmt.Errorf("watch project hooks: %w", err)
	}
	return nil
}

// UnregisterProject stops the project's watcher and unloads its hook set.
func (p *Pipeline) UnregisterProject(path string) {
	p.store.Unwatch(hook.ScopeProject, path)
	p.store.UnloadScope(hook.ScopeProject, path)
}
