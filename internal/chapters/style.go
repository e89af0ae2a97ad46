package chapters

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StylePreset shapes how chapter titles and summaries read.
type StylePreset struct {
	Name  string `yaml:"name" json:"name"`
	Tone  string `yaml:"tone" json:"tone,omitempty"`
	Voice string `yaml:"voice" json:"voice,omitempty"`
	// CommitsPerChapter is a sizing hint, 0 means no preference.
	CommitsPerChapter int `yaml:"commits_per_chapter" json:"commits_per_chapter,omitempty"`
}

// DefaultStyles returns the built-in narrative presets.
func DefaultStyles() []StylePreset {
	return []StylePreset{
		{
			Name:  "epic",
			Tone:  "sweeping and dramatic",
			Voice: "third-person narrator",
		},
		{
			Name:  "documentary",
			Tone:  "factual and measured",
			Voice: "neutral observer",
		},
		{
			Name:              "changelog",
			Tone:              "terse and technical",
			Voice:             "release notes",
			CommitsPerChapter: 15,
		},
	}
}

// LoadStyleFile reads extra presets from a YAML file of the form:
//
//	styles:
//	  - name: noir
//	    tone: brooding
//	    voice: hard-boiled detective
//
// Loaded presets are appended after the built-ins and may shadow them by
// name; the combined list is validated before being returned.
func LoadStyleFile(path string) ([]StylePreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style file: %w", err)
	}

	var file struct {
		Styles []StylePreset `yaml:"styles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse style file %s: %w", path, err)
	}

	styles := append(DefaultStyles(), file.Styles...)
	if err := validateStyles(file.Styles); err != nil {
		return nil, fmt.Errorf("style file %s: %w", path, err)
	}
	return styles, nil
}

func validateStyles(styles []StylePreset) error {
	seen := make(map[string]bool, len(styles))
	for i, s := range styles {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("styles[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("styles[%d] (%s): duplicate name", i, name)
		}
		seen[name] = true
		if s.CommitsPerChapter < 0 {
			return fmt.Errorf("styles[%d] (%s): commits_per_chapter must not be negative", i, name)
		}
	}
	return nil
}

// FindStyle resolves a preset by name, later entries winning so user presets
// shadow built-ins. An empty name selects the first preset.
func FindStyle(styles []StylePreset, name string) (StylePreset, bool) {
	if name == "" && len(styles) > 0 {
		return styles[0], true
	}
	for i := len(styles) - 1; i >= 0; i-- {
		if styles[i].Name == name {
			return styles[i], true
		}
	}
	return StylePreset{}, false
}
