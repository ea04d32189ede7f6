// ABOUTME: Authoritative in-memory index of hook files across user and project scopes
// ABOUTME: Sole writer of the index; fed by initial scans, its own writes, and watcher callbacks

package hookstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/eventbus"
	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/log"
)

// ChangeKind classifies index change notifications.
type ChangeKind string

const (
	ChangeLoaded   ChangeKind = "loaded"
	ChangeUpdated  ChangeKind = "updated"
	ChangeUnloaded ChangeKind = "unloaded" // disabled, still on disk
	ChangeRemoved  ChangeKind = "removed"  // deleted from disk
)

// Change is published on the store's bus whenever the index mutates.
type Change struct {
	Kind        ChangeKind
	FileName    string
	Scope       hook.Scope
	ProjectPath string
	Hook        *hook.Hook // nil for unload/remove
}

// Store owns the in-memory hook index. All mutation goes through its
// methods; watcher callbacks are just another internal caller.
type Store struct {
	mu       sync.RWMutex
	index    map[string]map[string]*hook.Hook // scope key -> filename -> hook
	watchers map[string]*Watcher
	bus      *eventbus.Bus[Change]
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index:    make(map[string]map[string]*hook.Hook),
		watchers: make(map[string]*Watcher),
		bus:      eventbus.New[Change](),
	}
}

// Changes exposes the index change bus for observers (pipeline, CLI, UI).
func (s *Store) Changes() *eventbus.Bus[Change] {
	return s.bus
}

func scopeKey(scope hook.Scope, projectPath string) string {
	if scope == hook.ScopeProject {
		return "project\x00" + projectPath
	}
	return "user"
}

func activeDir(scope hook.Scope, projectPath string) string {
	if scope == hook.ScopeProject {
		return config.ProjectHooksDir(projectPath)
	}
	return config.UserHooksDir()
}

// normalizeName appends the hook file extension when absent so callers can
// pass either an id or a filename.
func normalizeName(name string) string {
	if filepath.Ext(name) == "" {
		return name + config.HookFileExt
	}
	return name
}

// LoadAll scans a scope's active directory (non-recursive, hook extension,
// no dot-files) and populates the index. Parse failures are logged at warn
// and skipped; they never enter the index.
func (s *Store) LoadAll(scope hook.Scope, projectPath string) error {
	dir := activeDir(scope, projectPath)
	if err := os.MkdirAll(config.DisabledDir(dir), 0o755); err != nil {
		return fmt.Errorf("create hooks dir %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan hooks dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isHookFile(entry.Name()) {
			continue
		}
		if err := s.loadFile(scope, projectPath, entry.Name()); err != nil {
			log.Warn("skipping hook %s: %v", entry.Name(), err)
		}
	}
	return nil
}

func isHookFile(name string) bool {
	return !strings.HasPrefix(name, ".") && filepath.Ext(name) == config.HookFileExt
}

// loadFile reads and parses one hook file into the index. Used by LoadAll
// and by watcher callbacks on create/write.
func (s *Store) loadFile(scope hook.Scope, projectPath, fileName string) error {
	path := filepath.Join(activeDir(scope, projectPath), fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read hook %s: %w", path, err)
	}

	h, err := hook.ParseFile(fileName, string(data))
	if err != nil {
		return err
	}
	h.Scope = scope
	h.ProjectPath = projectPath
	h.Enabled = true
	if info, err := os.Stat(path); err == nil {
		h.ModTime = info.ModTime()
	}

	key := scopeKey(scope, projectPath)
	s.mu.Lock()
	if s.index[key] == nil {
		s.index[key] = make(map[string]*hook.Hook)
	}
	_, existed := s.index[key][fileName]
	s.index[key][fileName] = h
	s.mu.Unlock()

	kind := ChangeLoaded
	if existed {
		kind = ChangeUpdated
	}
	s.bus.Publish(Change{Kind: kind, FileName: fileName, Scope: scope, ProjectPath: projectPath, Hook: h})
	return nil
}

// evict removes a hook from the index and publishes the given change kind.
func (s *Store) evict(scope hook.Scope, projectPath, fileName string, kind ChangeKind) {
	key := scopeKey(scope, projectPath)
	s.mu.Lock()
	_, existed := s.index[key][fileName]
	delete(s.index[key], fileName)
	s.mu.Unlock()

	if existed {
		s.bus.Publish(Change{Kind: kind, FileName: fileName, Scope: scope, ProjectPath: projectPath})
	}
}

// Get returns the indexed hook for name (id or filename) or false.
func (s *Store) Get(scope hook.Scope, projectPath, name string) (*hook.Hook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.index[scopeKey(scope, projectPath)][normalizeName(name)]
	return h, ok
}

// AllEnabled returns the scope's indexed hooks in directory scan order
// (sorted by filename, matching os.ReadDir).
func (s *Store) AllEnabled(scope hook.Scope, projectPath string) []*hook.Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedHooksLocked(s.index[scopeKey(scope, projectPath)])
}

// Candidates returns the matching candidate set for an event: the union of
// user-scope hooks and the named project's hooks, user scope first.
func (s *Store) Candidates(projectPath string) []*hook.Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := sortedHooksLocked(s.index["user"])
	if projectPath != "" {
		out = append(out, sortedHooksLocked(s.index[scopeKey(hook.ScopeProject, projectPath)])...)
	}
	return out
}

func sortedHooksLocked(m map[string]*hook.Hook) []*hook.Hook {
	out := make([]*hook.Hook, 0, len(m))
	for _, h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out
}

// Disabled lists filenames currently parked in the disabled directory.
func (s *Store) Disabled(scope hook.Scope, projectPath string) ([]string, error) {
	dir := config.DisabledDir(activeDir(scope, projectPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan disabled dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isHookFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Create writes a new hook file into the active directory. It fails if the
// file already exists. Index visibility is asynchronous: the watcher, not
// Create, performs the load.
func (s *Store) Create(scope hook.Scope, projectPath, name, source string) error {
	dir := activeDir(scope, projectPath)
	if err := os.MkdirAll(config.DisabledDir(dir), 0o755); err != nil {
		return fmt.Errorf("create hooks dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, normalizeName(name))
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("hook %s already exists", normalizeName(name))
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return fmt.Errorf("write hook %s: %w", path, err)
	}
	return nil
}

// Update overwrites an existing hook file in place. It fails if the file
// does not exist.
func (s *Store) Update(scope hook.Scope, projectPath, name, source string) error {
	path := filepath.Join(activeDir(scope, projectPath), normalizeName(name))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("hook %s not found: %w", normalizeName(name), err)
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return fmt.Errorf("write hook %s: %w", path, err)
	}
	return nil
}

// Delete permanently removes a hook file (active or disabled) and evicts
// the in-memory entry. Irreversible.
func (s *Store) Delete(scope hook.Scope, projectPath, name string) error {
	fileName := normalizeName(name)
	dir := activeDir(scope, projectPath)

	path := filepath.Join(dir, fileName)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		err = os.Remove(filepath.Join(config.DisabledDir(dir), fileName))
	}
	if err != nil {
		return fmt.Errorf("delete hook %s: %w", fileName, err)
	}

	s.evict(scope, projectPath, fileName, ChangeRemoved)
	return nil
}

// Disable moves a hook file to the disabled sibling directory, evicts the
// in-memory entry, and publishes an unload notification.
func (s *Store) Disable(scope hook.Scope, projectPath, name string) error {
	fileName := normalizeName(name)
	dir := activeDir(scope, projectPath)

	if err := os.MkdirAll(config.DisabledDir(dir), 0o755); err != nil {
		return fmt.Errorf("create disabled dir: %w", err)
	}
	src := filepath.Join(dir, fileName)
	dst := filepath.Join(config.DisabledDir(dir), fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("disable hook %s: %w", fileName, err)
	}

	s.evict(scope, projectPath, fileName, ChangeUnloaded)
	return nil
}

// Enable moves a hook file back into the active directory. The reload is
// driven by the watcher, so index visibility is asynchronous.
func (s *Store) Enable(scope hook.Scope, projectPath, name string) error {
	fileName := normalizeName(name)
	dir := activeDir(scope, projectPath)

	src := filepath.Join(config.DisabledDir(dir), fileName)
	dst := filepath.Join(dir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("enable hook %s: %w", fileName, err)
	}
	return nil
}

// UnloadScope drops a scope's indexed hooks (project unregistration).
// Files on disk are untouched.
func (s *Store) UnloadScope(scope hook.Scope, projectPath string) {
	key := scopeKey(scope, projectPath)

	s.mu.Lock()
	hooks := s.index[key]
	delete(s.index, key)
	s.mu.Unlock()

	for name := range hooks {
		s.bus.Publish(Change{Kind: ChangeUnloaded, FileName: name, Scope: scope, ProjectPath: projectPath})
	}
}

// Watch starts a filesystem watcher for the scope's active and disabled
// directories, feeding change events back into the index.
func (s *Store) Watch(scope hook.Scope, projectPath string) error {
	key := scopeKey(scope, projectPath)

	s.mu.Lock()
	if _, ok := s.watchers[key]; ok {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	dir := activeDir(scope, projectPath)
	disabled := config.DisabledDir(dir)
	for _, d := range []string{dir, disabled} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	w, err := NewWatcher([]string{dir, disabled}, func(ev FileEvent) {
		s.handleFileEvent(scope, projectPath, dir, ev)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	s.mu.Lock()
	if _, ok := s.watchers[key]; ok {
		// Lost a race with a concurrent Watch; the existing watcher
		// stays, ours must not leak.
		s.mu.Unlock()
		w.Stop()
		return nil
	}
	s.watchers[key] = w
	s.mu.Unlock()
	return nil
}

// Unwatch stops the scope's watcher if one is running.
func (s *Store) Unwatch(scope hook.Scope, projectPath string) {
	key := scopeKey(scope, projectPath)

	s.mu.Lock()
	w := s.watchers[key]
	delete(s.watchers, key)
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// Close stops all watchers.
func (s *Store) Close() {
	s.mu.Lock()
	watchers := s.watchers
	s.watchers = make(map[string]*Watcher)
	s.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
}

// handleFileEvent routes a debounced filesystem event to a reload or an
// eviction. Events under the disabled directory are ignored: the paired
// rename in the active directory already drives the index.
func (s *Store) handleFileEvent(scope hook.Scope, projectPath, dir string, ev FileEvent) {
	if filepath.Dir(ev.Path) != dir {
		return
	}
	fileName := filepath.Base(ev.Path)
	if !isHookFile(fileName) {
		return
	}

	switch {
	case ev.Removed:
		s.evict(scope, projectPath, fileName, ChangeRemoved)
	default:
		if err := s.loadFile(scope, projectPath, fileName); err != nil {
			log.Warn("reload hook %s: %v", fileName, err)
			// A file that no longer parses must not keep matching.
			s.evict(scope, projectPath, fileName, ChangeRemoved)
		}
	}
}
