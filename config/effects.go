package config

// EffectShape selects the generator that renders an asset's frames.
type EffectShape int

const (
	ShapeSpark EffectShape = iota
	ShapeRing
	ShapeFlame
	ShapeSmoke
	ShapeBurst
	ShapeAura
)

// EffectAssetDef describes one effect asset's sprite sheet: frame geometry,
// playback rate, and how its frames are synthesized. Manifests reference
// these by key through the effect's asset field.
type EffectAssetDef struct {
	Shape       EffectShape
	FrameWidth  int
	FrameHeight int
	FrameCount  int
	SpeedInTps  float32 // ticks per frame
	Looped      bool
	Additive    bool    // draw with additive blending
	BaseScale   float64 // sprite pixels per world unit at scale 1
}

// EffectAssets maps an asset key (e.g., "spark") to its sheet definition.
var EffectAssets = map[string]EffectAssetDef{
	"spark": {
		Shape:       ShapeSpark,
		FrameWidth:  48,
		FrameHeight: 48,
		FrameCount:  12,
		SpeedInTps:  2,
		Additive:    true,
		BaseScale:   1.0,
	},
	"ring": {
		Shape:       ShapeRing,
		FrameWidth:  64,
		FrameHeight: 64,
		FrameCount:  16,
		SpeedInTps:  2,
		Additive:    true,
		BaseScale:   1.2,
	},
	"flame": {
		Shape:       ShapeFlame,
		FrameWidth:  40,
		FrameHeight: 56,
		FrameCount:  18,
		SpeedInTps:  3,
		Looped:      true,
		Additive:    true,
		BaseScale:   1.0,
	},
	"smoke": {
		Shape:       ShapeSmoke,
		FrameWidth:  56,
		FrameHeight: 56,
		FrameCount:  20,
		SpeedInTps:  4,
		BaseScale:   1.1,
	},
	"burst": {
		Shape:       ShapeBurst,
		FrameWidth:  72,
		FrameHeight: 72,
		FrameCount:  14,
		SpeedInTps:  2,
		Additive:    true,
		BaseScale:   1.3,
	},
	"aura": {
		Shape:       ShapeAura,
		FrameWidth:  64,
		FrameHeight: 64,
		FrameCount:  24,
		SpeedInTps:  3,
		Looped:      true,
		Additive:    true,
		BaseScale:   1.0,
	},
}
