// ABOUTME: Tests for the hook store: scan, CRUD, enable/disable, parse-failure skip
// ABOUTME: Uses project scope against t.TempDir to avoid touching the real home dir

package hookstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/hook"
)

const validSource = "// @name Test hook\n// @event PreToolUse\n// @pattern bash\nreturn \"ok\";\n"

func writeHook(t *testing.T, projectPath, fileName, source string) {
	t.Helper()
	dir := config.ProjectHooksDir(projectPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore_LoadAll(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeHook(t, project, "a.js", validSource)
	writeHook(t, project, "b.js", "// @name Other\n// @event Stop\nreturn 1;\n")
	writeHook(t, project, ".hidden.js", validSource)      // dot-file: skipped
	writeHook(t, project, "notes.txt", validSource)       // wrong extension: skipped
	writeHook(t, project, "broken.js", "return 1;\n")     // no header: skipped

	s := New()
	if err := s.LoadAll(hook.ScopeProject, project); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	hooks := s.AllEnabled(hook.ScopeProject, project)
	if len(hooks) != 2 {
		t.Fatalf("AllEnabled returned %d hooks, want 2", len(hooks))
	}
	// Scan order is sorted filename order.
	if hooks[0].FileName != "a.js" || hooks[1].FileName != "b.js" {
		t.Errorf("order = [%s %s], want [a.js b.js]", hooks[0].FileName, hooks[1].FileName)
	}
	if !hooks[0].Enabled {
		t.Error("loaded hooks should be marked enabled")
	}
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeHook(t, project, "a.js", validSource)

	s := New()
	if err := s.LoadAll(hook.ScopeProject, project); err != nil {
		t.Fatal(err)
	}

	// Both id and filename forms resolve.
	for _, name := range []string{"a", "a.js"} {
		h, ok := s.Get(hook.ScopeProject, project, name)
		if !ok {
			t.Fatalf("Get(%q): not found", name)
		}
		if h.Name != "Test hook" {
			t.Errorf("Name = %q", h.Name)
		}
	}

	if _, ok := s.Get(hook.ScopeProject, project, "missing"); ok {
		t.Error("Get(missing) should report not found")
	}
}

func TestStore_CreateFailsIfExists(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	s := New()

	if err := s.Create(hook.ScopeProject, project, "new", validSource); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(hook.ScopeProject, project, "new", validSource); err == nil {
		t.Fatal("second Create with same name should fail")
	}

	// Create does not load inline; index visibility is watcher-driven.
	if _, ok := s.Get(hook.ScopeProject, project, "new"); ok {
		t.Error("Create must not synchronously index the new hook")
	}
}

func TestStore_UpdateRequiresExisting(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	s := New()

	if err := s.Update(hook.ScopeProject, project, "ghost", validSource); err == nil {
		t.Fatal("Update of a missing hook should fail")
	}

	if err := s.Create(hook.ScopeProject, project, "u", validSource); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(hook.ScopeProject, project, "u", validSource+"// more\n"); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestStore_DeleteEvicts(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeHook(t, project, "gone.js", validSource)

	s := New()
	if err := s.LoadAll(hook.ScopeProject, project); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(hook.ScopeProject, project, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := s.Get(hook.ScopeProject, project, "gone"); ok {
		t.Error("deleted hook should be evicted from the index")
	}
	if _, err := os.Stat(filepath.Join(config.ProjectHooksDir(project), "gone.js")); !os.IsNotExist(err) {
		t.Error("deleted hook file should be gone from disk")
	}
}

func TestStore_DisableMovesAndEvicts(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeHook(t, project, "d.js", validSource)

	s := New()
	if err := s.LoadAll(hook.ScopeProject, project); err != nil {
		t.Fatal(err)
	}

	var unloads []string
	s.Changes().Subscribe(func(c Change) {
		if c.Kind == ChangeUnloaded {
			unloads = append(unloads, c.FileName)
		}
	})

	if err := s.Disable(hook.ScopeProject, project, "d"); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	if _, ok := s.Get(hook.ScopeProject, project, "d"); ok {
		t.Error("disabled hook should leave the index")
	}
	disabledPath := filepath.Join(config.DisabledDir(config.ProjectHooksDir(project)), "d.js")
	if _, err := os.Stat(disabledPath); err != nil {
		t.Errorf("disabled file should exist at %s: %v", disabledPath, err)
	}
	if len(unloads) != 1 || unloads[0] != "d.js" {
		t.Errorf("unload notifications = %v, want [d.js]", unloads)
	}

	names, err := s.Disabled(hook.ScopeProject, project)
	if err != nil {
		t.Fatalf("Disabled: %v", err)
	}
	if len(names) != 1 || names[0] != "d.js" {
		t.Errorf("Disabled() = %v, want [d.js]", names)
	}
}

func TestStore_EnableIsPureMove(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeHook(t, project, "e.js", validSource)

	s := New()
	if err := s.LoadAll(hook.ScopeProject, project); err != nil {
		t.Fatal(err)
	}
	if err := s.Disable(hook.ScopeProject, project, "e"); err != nil {
		t.Fatal(err)
	}
	if err := s.Enable(hook.ScopeProject, project, "e"); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	// Enable moves the file but does not index inline.
	if _, err := os.Stat(filepath.Join(config.ProjectHooksDir(project), "e.js")); err != nil {
		t.Errorf("enabled file should be back in the active dir: %v", err)
	}
	if _, ok := s.Get(hook.ScopeProject, project, "e"); ok {
		t.Error("Enable must not synchronously index; the watcher does that")
	}
}

func TestStore_UnloadScope(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeHook(t, project, "a.js", validSource)

	s := New()
	if err := s.LoadAll(hook.ScopeProject, project); err != nil {
		t.Fatal(err)
	}
	s.UnloadScope(hook.ScopeProject, project)

	if got := s.AllEnabled(hook.ScopeProject, project); len(got) != 0 {
		t.Errorf("AllEnabled after unload = %d hooks, want 0", len(got))
	}
}

func TestStore_CandidatesUnion(t *testing.T) {
	t.Parallel()

	projectA := t.TempDir()
	projectB := t.TempDir()
	writeHook(t, projectA, "pa.js", validSource)
	writeHook(t, projectB, "pb.js", validSource)

	s := New()
	if err := s.LoadAll(hook.ScopeProject, projectA); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadAll(hook.ScopeProject, projectB); err != nil {
		t.Fatal(err)
	}

	got := s.Candidates(projectA)
	if len(got) != 1 || got[0].FileName != "pa.js" {
		t.Errorf("Candidates(projectA) = %v hooks, want only pa.js", len(got))
	}
	if got := s.Candidates(""); len(got) != 0 {
		t.Errorf("Candidates with no project = %d hooks, want 0 (empty user scope)", len(got))
	}
}

func TestStore_ConcurrentWatchKeepsOneWatcher(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	s := New()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Watch(hook.ScopeProject, project); err != nil {
				t.Errorf("Watch: %v", err)
			}
		}()
	}
	wg.Wait()

	s.mu.Lock()
	n := len(s.watchers)
	s.mu.Unlock()
	if n != 1 {
		t.Errorf("watchers registered = %d, want 1", n)
	}
}
