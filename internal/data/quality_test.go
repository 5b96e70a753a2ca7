package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mindland/governor/internal/config"
	"github.com/mindland/governor/internal/quality"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadShippedQualityPresets(t *testing.T) {
	table, err := LoadQualityPresetTable(filepath.Join("..", "..", "data", "yaml", "quality_presets.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if table.Count() != 5 {
		t.Errorf("expected 5 presets, got %d (%v)", table.Count(), table.Names())
	}
	mbp := table.Get("macbook_pro_2014")
	if mbp == nil {
		t.Fatal("macbook_pro_2014 preset missing")
	}
	if mbp.Settings() != quality.MacBookPro2014() {
		t.Errorf("yaml preset differs from built-in: %+v", mbp.Settings())
	}
	// Every performance mode's preset must exist.
	for _, name := range []string{"balanced", "ultra_performance", "ultra"} {
		if table.Get(name) == nil {
			t.Errorf("preset %q missing", name)
		}
	}
}

func TestLoadQualityPresetsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"texture", "presets:\n  - {name: a, render_distance: 1, texture: shiny, shadow: off, particle_density: 0.5, update_frequency: 60}", "texture"},
		{"density", "presets:\n  - {name: a, render_distance: 1, texture: low, shadow: off, particle_density: 2, update_frequency: 60}", "particle_density"},
		{"duplicate", "presets:\n  - {name: a, render_distance: 1, texture: low, shadow: off, update_frequency: 60}\n  - {name: a, render_distance: 1, texture: low, shadow: off, update_frequency: 60}", "duplicate"},
		{"unnamed", "presets:\n  - {render_distance: 1, texture: low, shadow: off, update_frequency: 60}", "no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadQualityPresetTable(writeYAML(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadQualityPresetsMissingFile(t *testing.T) {
	if _, err := LoadQualityPresetTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuiltinQualityPresets(t *testing.T) {
	table := BuiltinQualityPresets()
	p := table.Get("macbook_pro_2014")
	if p == nil || p.Settings() != quality.MacBookPro2014() {
		t.Fatal("expected built-in macbook_pro_2014 preset")
	}
	if table.Get("missing") != nil {
		t.Error("unexpected built-in preset")
	}
}

func TestBuiltinQualityPresetsCoverEveryMode(t *testing.T) {
	table := BuiltinQualityPresets()
	for mode, m := range config.Modes {
		if table.Get(m.QualityPreset) == nil {
			t.Errorf("mode %s: expected built-in preset %q, got none (have %v)", mode, m.QualityPreset, table.Names())
		}
	}
}

func TestBuiltinQualityPresetsMatchShippedFile(t *testing.T) {
	shipped, err := LoadQualityPresetTable(filepath.Join("..", "..", "data", "yaml", "quality_presets.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	builtin := BuiltinQualityPresets()
	if builtin.Count() != shipped.Count() {
		t.Fatalf("expected %d built-in presets, got %d", shipped.Count(), builtin.Count())
	}
	for _, name := range shipped.Names() {
		b := builtin.Get(name)
		if b == nil {
			t.Errorf("expected built-in preset %q", name)
			continue
		}
		if b.Settings() != shipped.Get(name).Settings() {
			t.Errorf("preset %s: expected %+v, got %+v", name, shipped.Get(name).Settings(), b.Settings())
		}
	}
}
