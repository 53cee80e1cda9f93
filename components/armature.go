package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hatoba/efkstage/manifest"
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// BoneState is one bone's live pose. Angle is the local angle in degrees,
// keyed by the active clip's pose track; World fields are recomputed from
// the parent chain every tick.
type BoneState struct {
	Def   manifest.Bone
	Angle float64

	// Blend eases the bone from wherever it was onto the pose of a newly
	// entered clip instead of snapping.
	Blend     *gween.Tween
	BlendFrom float64

	WorldBase  mgl64.Vec3
	WorldTip   mgl64.Vec3
	WorldAngle float64 // degrees, parent chain accumulated
	WorldRot   mgl64.Quat
}

// ArmatureData holds a model's bone set in declaration order. Parents
// always precede children in Order, so one forward pass composes the
// whole chain. PosedClipID is the clip the pose pass last sampled, used
// to detect clip entry for blend-in.
type ArmatureData struct {
	ModelID     string
	Bones       map[string]*BoneState
	Order       []string
	PosedClipID string
}

var Armature = donburi.NewComponentType[ArmatureData]()
