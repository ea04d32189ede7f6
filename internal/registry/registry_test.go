// ABOUTME: Tests for the file-backed project registry: add, remove, reload
// ABOUTME: Uses t.TempDir for registry files and project paths

package registry

import (
	"path/filepath"
	"testing"
)

func TestRegistry_AddRemoveReload(t *testing.T) {
	t.Parallel()

	regPath := filepath.Join(t.TempDir(), "projects.yaml")
	projectDir := t.TempDir()

	r, err := Load(regPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(r.Projects()) != 0 {
		t.Error("fresh registry should be empty")
	}

	if err := r.Add("demo", projectDir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	p, ok := r.Project("demo")
	if !ok || p.Path != projectDir {
		t.Errorf("Project(demo) = %+v ok=%v", p, ok)
	}

	// A second Load sees the persisted entry.
	r2, err := Load(regPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := r2.Project("demo"); !ok {
		t.Error("persisted project missing after reload")
	}

	if err := r.Remove("demo"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := r.Project("demo"); ok {
		t.Error("removed project still present")
	}
	if err := r.Remove("demo"); err == nil {
		t.Error("removing unknown project should fail")
	}
}

func TestRegistry_AddRejectsMissingPath(t *testing.T) {
	t.Parallel()

	r, err := Load(filepath.Join(t.TempDir(), "projects.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Add("ghost", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Add with nonexistent path should fail")
	}
}
