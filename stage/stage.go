// Package stage implements the frame-synchronized trigger/follow engine
// behind the effect authoring preview: it decides when a configured effect
// fires against an animation clip, how long the spawned instance lives, and
// how its transform tracks a moving skeletal bone from tick to tick.
//
// The package owns no rendering and no effect playback of its own. The host
// supplies a BoneQuery for live bone poses and an EffectRuntime that turns
// play requests into opaque handles; the engine only schedules, composes
// transforms, and writes them back. All components are constructed
// explicitly and wired by the caller, and all state mutates on the caller's
// render-loop stack. Nothing here is safe for concurrent use.
package stage

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultFrameRate is the frame quantization rate used by the trigger
// channel when the host does not override it.
const DefaultFrameRate = 30.0

// BoneRef identifies a skeletal bone to the host's BoneQuery. The engine
// treats it as opaque; an empty ref means the effect is world-space.
type BoneRef string

// Clip is a named, time-bounded animation segment. ID is the stable
// identity used for trigger matching; Name is display-only and may be
// renamed or collide freely.
type Clip struct {
	ID    string
	Name  string
	Start int // first frame, clip-local
	End   int // last frame, inclusive
}

// Duration returns the clip length in seconds at the given frame rate.
func (c *Clip) Duration(fps float64) float64 {
	if c == nil || fps <= 0 {
		return 0
	}
	return float64(c.End-c.Start+1) / fps
}

// Trigger schedules one effect spawn at a clip-local frame.
// Frame must be >= 0. Duration is in seconds; zero means the spawned
// instance plays to natural completion.
type Trigger struct {
	ID       string
	ClipID   string
	Frame    int
	Duration float64
}

// EffectDefinition is the author-time configuration for one effect class:
// where it spawns relative to its bone (or the world origin), how fast it
// plays, and the triggers that fire it. The editor owns these; the engine
// reads them and never mutates.
type EffectDefinition struct {
	ID       string
	Name     string
	Asset    string
	Position mgl64.Vec3 // local offset
	Rotation mgl64.Vec3 // local offset, degrees
	Scale    mgl64.Vec3
	Speed    float64
	Bone     BoneRef // empty = world-space
	Triggers []Trigger
	Color    color.RGBA
	Loaded   bool
}

// PlayRequest is the spawn call handed to the EffectRuntime.
// Rotation is euler radians; bone-bound spawns arrive already composed
// with the bone's world pose.
type PlayRequest struct {
	EffectID string
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
	Speed    float64
}

// Handle is an opaque reference to a live effect instance owned by the
// runtime. Stop on an instance that already finished must be a no-op;
// the engine relies on that when duration timers race natural expiry.
type Handle interface {
	Exists() bool
	Stop()
	SetPaused(paused bool)
	SetTransform(m mgl64.Mat4)
	SetShown(shown bool)
	SetSpeed(speed float64)
}

// EffectRuntime plays effect instances. Play returns ok=false when the
// runtime cannot spawn (asset missing, instance budget, ...); the engine
// drops the fire and carries on.
type EffectRuntime interface {
	Play(req PlayRequest) (Handle, bool)
}

// BoneQuery resolves a bone reference to its current world pose.
// ok=false means the bone is gone from the skeleton.
type BoneQuery interface {
	Pose(bone BoneRef) (pos mgl64.Vec3, rot mgl64.Quat, ok bool)
}

// ModelState is the externally-owned render state the procedural channel
// writes into. The host keeps the storage; the engine only assigns fields.
type ModelState struct {
	Visible  bool
	Opacity  float64
	Scale    mgl64.Vec3
	Position mgl64.Vec3
}

// ModelStore resolves a model ID to its live render state.
type ModelStore interface {
	ModelState(modelID string) (*ModelState, bool)
}

// FiredTrigger describes one trigger crossing, delivered through the
// scheduler's OnFired hook.
type FiredTrigger struct {
	EffectID  string
	TriggerID string
	ClipID    string
	Frame     int
	Bone      BoneRef
}
