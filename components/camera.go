package components

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/math"
)

type CameraData struct {
	Position math.Vec2
	Zoom     float64

	// FollowModel, when non-empty, is the model ID the camera eases toward.
	// Manual panning clears it.
	FollowModel string

	// LastSelected is the transport selection seen last tick; a change
	// re-arms follow onto the newly selected model.
	LastSelected string

	// Shake offsets are recomputed every tick from the active shake and
	// applied at render time, so they never displace Position itself.
	ShakeX float64
	ShakeY float64
}

var Camera = donburi.NewComponentType[CameraData]()
