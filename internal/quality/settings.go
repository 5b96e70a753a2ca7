package quality

import (
	"fmt"
	"strings"
)

// TextureQuality levels, lowest first.
type TextureQuality uint8

const (
	TextureLow TextureQuality = iota
	TextureMedium
	TextureHigh
	TextureUltra
)

var textureNames = [...]string{"low", "medium", "high", "ultra"}

func (q TextureQuality) String() string {
	if int(q) < len(textureNames) {
		return textureNames[q]
	}
	return "unknown"
}

// ParseTextureQuality accepts the lower-case level name.
func ParseTextureQuality(s string) (TextureQuality, error) {
	for i, n := range textureNames {
		if strings.EqualFold(s, n) {
			return TextureQuality(i), nil
		}
	}
	return 0, fmt.Errorf("unknown texture quality %q", s)
}

// ShadowQuality levels, lowest first.
type ShadowQuality uint8

const (
	ShadowOff ShadowQuality = iota
	ShadowLow
	ShadowMedium
	ShadowHigh
	ShadowUltra
)

var shadowNames = [...]string{"off", "low", "medium", "high", "ultra"}

func (q ShadowQuality) String() string {
	if int(q) < len(shadowNames) {
		return shadowNames[q]
	}
	return "unknown"
}

func ParseShadowQuality(s string) (ShadowQuality, error) {
	for i, n := range shadowNames {
		if strings.EqualFold(s, n) {
			return ShadowQuality(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shadow quality %q", s)
}

// Settings are the fidelity knobs read by the renderer each frame.
type Settings struct {
	RenderDistance  float64
	Texture         TextureQuality
	Shadow          ShadowQuality
	ParticleDensity float64
	UpdateFrequency int // Hz
	VSync           bool
}

// Floors held when protection is re-applied under the Emergency strategy.
const (
	MinRenderDistance  = 16.0
	MinParticleDensity = 0.05
)

// ProtectedUpdateFrequency is the simulation rate forced by thermal
// protection.
const ProtectedUpdateFrequency = 30

// MacBookPro2014 is the thermally constrained laptop preset.
func MacBookPro2014() Settings {
	return Settings{
		RenderDistance:  128,
		Texture:         TextureMedium,
		Shadow:          ShadowLow,
		ParticleDensity: 0.7,
		UpdateFrequency: 60,
		VSync:           true,
	}
}

// ApplyThermalProtection degrades the settings one step. It only ever moves
// toward lower fidelity.
func (s *Settings) ApplyThermalProtection() {
	s.RenderDistance *= 0.8
	s.Texture = TextureLow
	s.Shadow = ShadowOff
	s.ParticleDensity *= 0.5
	s.UpdateFrequency = ProtectedUpdateFrequency
}
