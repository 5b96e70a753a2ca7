package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mindland/governor/internal/quality"
)

// QualityPreset is one named baseline for the quality controller.
type QualityPreset struct {
	Name            string  `yaml:"name"`
	RenderDistance  float64 `yaml:"render_distance"`
	Texture         string  `yaml:"texture"` // low, medium, high, ultra
	Shadow          string  `yaml:"shadow"`  // off, low, medium, high, ultra
	ParticleDensity float64 `yaml:"particle_density"`
	UpdateFrequency int     `yaml:"update_frequency"`
	VSync           bool    `yaml:"vsync"`

	settings quality.Settings
}

// Settings returns the parsed quality settings.
func (p *QualityPreset) Settings() quality.Settings {
	return p.settings
}

func (p *QualityPreset) resolve() error {
	tex, err := quality.ParseTextureQuality(p.Texture)
	if err != nil {
		return err
	}
	sh, err := quality.ParseShadowQuality(p.Shadow)
	if err != nil {
		return err
	}
	if p.RenderDistance <= 0 {
		return fmt.Errorf("render_distance must be positive, got %v", p.RenderDistance)
	}
	if p.ParticleDensity < 0 || p.ParticleDensity > 1 {
		return fmt.Errorf("particle_density must be in [0,1], got %v", p.ParticleDensity)
	}
	if p.UpdateFrequency <= 0 {
		return fmt.Errorf("update_frequency must be positive, got %d", p.UpdateFrequency)
	}
	p.settings = quality.Settings{
		RenderDistance:  p.RenderDistance,
		Texture:         tex,
		Shadow:          sh,
		ParticleDensity: p.ParticleDensity,
		UpdateFrequency: p.UpdateFrequency,
		VSync:           p.VSync,
	}
	return nil
}

// QualityPresetTable indexes presets by name.
type QualityPresetTable struct {
	byName map[string]*QualityPreset
}

// Get returns a preset by name, or nil if not found.
func (t *QualityPresetTable) Get(name string) *QualityPreset {
	return t.byName[name]
}

// Names returns the preset names in sorted order.
func (t *QualityPresetTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of presets loaded.
func (t *QualityPresetTable) Count() int {
	return len(t.byName)
}

// builtinPresets mirrors data/yaml/quality_presets.yaml so every
// performance mode has a baseline when the file is unavailable.
var builtinPresets = []QualityPreset{
	{Name: "low", RenderDistance: 64, Texture: "low", Shadow: "off", ParticleDensity: 0.3, UpdateFrequency: 30, VSync: true},
	{Name: "macbook_pro_2014", RenderDistance: 128, Texture: "medium", Shadow: "low", ParticleDensity: 0.7, UpdateFrequency: 60, VSync: true},
	{Name: "balanced", RenderDistance: 192, Texture: "high", Shadow: "medium", ParticleDensity: 0.8, UpdateFrequency: 60, VSync: true},
	{Name: "ultra_performance", RenderDistance: 160, Texture: "medium", Shadow: "low", ParticleDensity: 0.5, UpdateFrequency: 144, VSync: false},
	{Name: "ultra", RenderDistance: 512, Texture: "ultra", Shadow: "ultra", ParticleDensity: 1.0, UpdateFrequency: 60, VSync: true},
}

// BuiltinQualityPresets is the table used when no preset file is available.
func BuiltinQualityPresets() *QualityPresetTable {
	t := &QualityPresetTable{byName: make(map[string]*QualityPreset, len(builtinPresets))}
	for _, p := range builtinPresets {
		if err := p.resolve(); err != nil {
			panic(fmt.Sprintf("quality: built-in preset %q: %v", p.Name, err))
		}
		t.byName[p.Name] = &p
	}
	return t
}

// --- YAML loading ---

type qualityPresetFile struct {
	Presets []QualityPreset `yaml:"presets"`
}

// LoadQualityPresetTable loads quality presets from YAML.
func LoadQualityPresetTable(path string) (*QualityPresetTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quality: read %s: %w", path, err)
	}

	var f qualityPresetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("quality: parse %s: %w", path, err)
	}

	t := &QualityPresetTable{byName: make(map[string]*QualityPreset, len(f.Presets))}
	for i := range f.Presets {
		p := &f.Presets[i]
		if p.Name == "" {
			return nil, fmt.Errorf("quality: %s: preset %d has no name", path, i)
		}
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("quality: %s: duplicate preset %q", path, p.Name)
		}
		if err := p.resolve(); err != nil {
			return nil, fmt.Errorf("quality: %s: preset %q: %w", path, p.Name, err)
		}
		t.byName[p.Name] = p
	}
	return t, nil
}
