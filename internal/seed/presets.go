package seed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named seeding profile loadable from a YAML file, so demo
// environments can be described in version control instead of flag soup.
type Preset struct {
	Name                  string  `yaml:"name"`
	Volunteers            int     `yaml:"volunteers"`
	Victims               int     `yaml:"victims"`
	ResourcesPerVolunteer int     `yaml:"resources_per_volunteer"`
	Requests              int     `yaml:"requests"`
	ApproveRatio          float64 `yaml:"approve_ratio"`
	Clean                 bool    `yaml:"clean"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// builtinPresets are available without any preset file.
var builtinPresets = []Preset{
	{Name: "Minimal", Volunteers: 2, Victims: 3, ResourcesPerVolunteer: 1, Requests: 4, ApproveRatio: 0.5, Clean: true},
	{Name: "Demo", Volunteers: 10, Victims: 30, ResourcesPerVolunteer: 3, Requests: 60, ApproveRatio: 0.5, Clean: true},
	{Name: "Flood", Volunteers: 40, Victims: 400, ResourcesPerVolunteer: 5, Requests: 1200, ApproveRatio: 0.3, Clean: true},
}

// LoadPresets parses a YAML preset file.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes preset definitions from YAML bytes.
func ParsePresets(data []byte) ([]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	for i, p := range file.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("preset %d has no name", i)
		}
		if p.Volunteers < 0 || p.Victims < 0 || p.Requests < 0 {
			return nil, fmt.Errorf("preset %q has negative counts", p.Name)
		}
		if p.ApproveRatio < 0 || p.ApproveRatio > 1 {
			return nil, fmt.Errorf("preset %q approve_ratio must be within [0,1]", p.Name)
		}
	}
	return file.Presets, nil
}

// FindPreset resolves a preset by name from the given list plus the
// built-ins. Matching is case-insensitive.
func FindPreset(name string, extra []Preset) (Preset, bool) {
	for _, p := range extra {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	for _, p := range builtinPresets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Options converts a preset into seeder options.
func (p Preset) Options() Options {
	return Options{
		NumVolunteers:         p.Volunteers,
		NumVictims:            p.Victims,
		ResourcesPerVolunteer: p.ResourcesPerVolunteer,
		NumRequests:           p.Requests,
		ApproveRatio:          p.ApproveRatio,
		ShouldClean:           p.Clean,
	}
}

// ApplyPreset runs the seeder with the named preset.
func (s *Seeder) ApplyPreset(name string, extra []Preset) error {
	preset, ok := FindPreset(name, extra)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	return s.Run(preset.Options())
}
