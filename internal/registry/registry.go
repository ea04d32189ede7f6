// ABOUTME: Project registry: named projects with filesystem paths and free-form config
// ABOUTME: YAML file backed; the pipeline consumes only the read side

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Project is one registered project.
type Project struct {
	Path   string         `yaml:"path"`
	Config map[string]any `yaml:"config,omitempty"`
}

// Registry is the narrow read interface the pipeline depends on.
type Registry interface {
	Projects() map[string]Project
	Project(name string) (Project, bool)
}

// FileRegistry stores projects in a YAML file.
type FileRegistry struct {
	mu       sync.RWMutex
	path     string
	projects map[string]Project
}

type registryFile struct {
	Projects map[string]Project `yaml:"projects"`
}

// Load reads the registry file at path. A missing file yields an empty
// registry.
func Load(path string) (*FileRegistry, error) {
	r := &FileRegistry{path: path, projects: map[string]Project{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if file.Projects != nil {
		r.projects = file.Projects
	}
	return r, nil
}

// Projects returns a copy of the registered projects.
func (r *FileRegistry) Projects() map[string]Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Project, len(r.projects))
	for name, p := range r.projects {
		out[name] = p
	}
	return out
}

// Project looks up one project by name.
func (r *FileRegistry) Project(name string) (Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[name]
	return p, ok
}

// Names returns project names in sorted order.
func (r *FileRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.projects))
	for name := range r.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add registers a project and persists the file. The path must exist on
// disk.
func (r *FileRegistry) Add(name, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("project path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path %s is not a directory", abs)
	}

	r.mu.Lock()
	r.projects[name] = Project{Path: abs}
	r.mu.Unlock()
	return r.save()
}

// Remove unregisters a project and persists the file. Removing an unknown
// name is an error.
func (r *FileRegistry) Remove(name string) error {
	r.mu.Lock()
	if _, ok := r.projects[name]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("project %q not registered", name)
	}
	delete(r.projects, name)
	r.mu.Unlock()
	return r.save()
}

func (r *FileRegistry) save() error {
	r.mu.RLock()
	data, err := yaml.Marshal(registryFile{Projects: r.projects})
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", r.path, err)
	}
	return nil
}
