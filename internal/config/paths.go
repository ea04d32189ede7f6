// ABOUTME: Standard filesystem paths for agentdeck configuration and data
// ABOUTME: Resolves ~/.agentdeck/ for global and <project>/.agentdeck/ for project paths

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName  = ".agentdeck"
	projectDirName = ".agentdeck"

	// DisabledDirName is the sibling subdirectory holding disabled hooks.
	// Directory placement, not header content, decides enabled state.
	DisabledDirName = "disabled"

	// HookFileExt is the extension hook files must carry to be loaded.
	HookFileExt = ".js"
)

// GlobalDir returns the user-global config directory (~/.agentdeck/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// ProjectDir returns the project-local config directory.
func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, projectDirName)
}

// UserHooksDir returns the active hooks directory for the user scope.
func UserHooksDir() string {
	return filepath.Join(GlobalDir(), "hooks")
}

// ProjectHooksDir returns the active hooks directory for a project.
func ProjectHooksDir(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "hooks")
}

// DisabledDir returns the disabled sibling of an active hooks directory.
func DisabledDir(hooksDir string) string {
	return filepath.Join(hooksDir, DisabledDirName)
}

// RegistryFile returns the path to the project registry file.
func RegistryFile() string {
	return filepath.Join(GlobalDir(), "projects.yaml")
}

// SettingsFile returns the path to the daemon settings file.
func SettingsFile() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// LogDBFile returns the default path of the execution log database.
func LogDBFile() string {
	return filepath.Join(GlobalDir(), "hooklog.db")
}
