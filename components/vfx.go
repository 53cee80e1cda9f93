package components

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hatoba/efkstage/assets/animations"
	"github.com/yohamta/donburi"
)

// VFXData is one live effect instance spawned by the trigger engine. The
// transform fields are written through the engine's Handle (SetTransform
// decomposes the matrix); the render system reads them every frame.
type VFXData struct {
	EffectID string
	Asset    string

	Anim     *animations.Animation
	Frames   []*ebiten.Image
	Tint     color.RGBA
	Additive bool

	// World transform, decomposed for the 2D renderer. RotationZ is
	// radians; ScaleX/ScaleY already include the asset's base scale.
	X, Y      float64
	RotationZ float64
	ScaleX    float64
	ScaleY    float64

	Speed  float64
	Paused bool
	Hidden bool
	Alive  bool

	// Managed instances are driven through their Handle by the follow
	// registry: transport pause and speed arrive as SetPaused/SetSpeed
	// calls, with RateScale holding the speed multiplier. Unmanaged
	// instances read the transport rate directly each tick.
	Managed   bool
	RateScale float64

	// FlashFrames counts down the white spawn flash.
	FlashFrames int
}

var VFX = donburi.NewComponentType[VFXData]()
