package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yanmxa/codo/internal/permission"
)

// Loader loads and merges settings from the user and project levels.
type Loader struct {
	userDir    string // e.g. ~/.codo
	projectDir string // e.g. .codo
}

// NewLoader creates a loader with the default directories.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		userDir:    filepath.Join(home, ".codo"),
		projectDir: ".codo",
	}
}

// NewLoaderWithDirs creates a loader with explicit directories, for tests.
func NewLoaderWithDirs(userDir, projectDir string) *Loader {
	return &Loader{userDir: userDir, projectDir: projectDir}
}

// Load merges settings from all sources, lowest priority first:
// user settings.json, project settings.json, project settings.local.json.
// Missing or malformed files are skipped.
func (l *Loader) Load() *Settings {
	merged := NewSettings()
	sources := []string{
		filepath.Join(l.userDir, "settings.json"),
		filepath.Join(l.projectDir, "settings.json"),
		filepath.Join(l.projectDir, "settings.local.json"),
	}
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}
		var s Settings
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		merged = Merge(merged, &s)
	}
	return merged
}

// UserDir returns the user config directory path.
func (l *Loader) UserDir() string { return l.userDir }

// toolsFile is the on-disk shape of tools.yaml:
//
//	tools:
//	  execute_command: needs_approval
//	  my_custom_tool: safe
type toolsFile struct {
	Tools map[string]string `yaml:"tools"`
}

// LoadClassification returns the default tool classification with any
// overrides from the project's tools.yaml applied. Unknown level names
// are ignored.
func (l *Loader) LoadClassification() permission.Classification {
	cls := permission.Default()

	data, err := os.ReadFile(filepath.Join(l.projectDir, "tools.yaml"))
	if err != nil {
		return cls
	}
	var tf toolsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return cls
	}
	for name, levelName := range tf.Tools {
		if level, ok := permission.ParseLevel(levelName); ok {
			cls[name] = level
		}
	}
	return cls
}
