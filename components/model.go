package components

import (
	"github.com/hatoba/efkstage/manifest"
	"github.com/hatoba/efkstage/stage"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/math"
)

// ModelData is one manifest model placed on the stage. State is the live
// render state shared with the engine's procedural channel; the renderer
// reads it every frame, so fades and moves written by the channel show up
// without any copying.
type ModelData struct {
	ID     string
	Name   string
	Def    *manifest.Model
	State  *stage.ModelState
	Anchor math.Vec2 // world-space position of the armature root

	// Clip display state, maintained by the clip update listener.
	ActiveClipID   string
	ActiveClipName string
	ClipLocalTime  float64
	ClipDuration   float64
	ClipPlaying    bool
}

var Model = donburi.NewComponentType[ModelData]()
