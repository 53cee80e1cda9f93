package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/manifest"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// Seconds to ease bones onto a newly entered clip's pose.
const clipBlendSec = 0.15

// UpdateArmatures samples the active clip's pose track for every model,
// composes world bone transforms down each parent chain, and republishes
// them through the engine's bone index. Effect followers read the index on
// the same tick, so this must run after playback and before the follower
// sweep.
func UpdateArmatures(e *ecs.ECS) {
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)

	fps := eng.Manifest.EffectiveFrameRate(cfg.Playback.FrameRate)
	dt := float32(1.0 / cfg.Playback.TickRate)

	components.Model.Each(e.World, func(entry *donburi.Entry) {
		md := components.Model.Get(entry)
		ad := components.Armature.Get(entry)
		poseArmature(md, ad, fps, dt)
		composeWorld(md, ad)
		publishBones(eng, md, ad)
	})
}

// poseArmature writes each bone's local angle for this tick. Pose keys set
// angles absolutely; bones without keys in the active clip hold their rest
// angle. Clip changes ease in over clipBlendSec instead of snapping.
func poseArmature(md *components.ModelData, ad *components.ArmatureData, fps float64, dt float32) {
	var clip *manifest.ClipDef
	if md.ActiveClipID != "" {
		clip, _ = md.Def.Clip(md.ActiveClipID)
	}

	clipID := ""
	if clip != nil {
		clipID = clip.ID
	}
	if clipID != ad.PosedClipID {
		for _, b := range ad.Bones {
			b.BlendFrom = b.Angle
			b.Blend = gween.New(0, 1, clipBlendSec, ease.OutQuad)
		}
		ad.PosedClipID = clipID
	}

	frame := md.ClipLocalTime * fps
	for _, name := range ad.Order {
		b := ad.Bones[name]
		target := b.Def.Angle
		if clip != nil {
			target = sampleClipAngle(clip, name, frame, b.Def.Angle)
		}
		if b.Blend != nil {
			t, done := b.Blend.Update(dt)
			b.Angle = b.BlendFrom + (target-b.BlendFrom)*float64(t)
			if done {
				b.Blend = nil
			}
		} else {
			b.Angle = target
		}
	}
}

// sampleClipAngle interpolates a bone's pose track at a fractional clip-local
// frame. Before the first key and past the last the track clamps.
func sampleClipAngle(clip *manifest.ClipDef, bone string, frame, rest float64) float64 {
	var lo, hi *manifest.PoseKey
	for i := range clip.Poses {
		k := &clip.Poses[i]
		if k.Bone != bone {
			continue
		}
		kf := float64(k.Frame)
		if kf <= frame && (lo == nil || k.Frame > lo.Frame) {
			lo = k
		}
		if kf >= frame && (hi == nil || k.Frame < hi.Frame) {
			hi = k
		}
	}
	switch {
	case lo == nil && hi == nil:
		return rest
	case lo == nil:
		return hi.Angle
	case hi == nil:
		return lo.Angle
	case lo.Frame == hi.Frame:
		return lo.Angle
	}
	t := (frame - float64(lo.Frame)) / float64(hi.Frame-lo.Frame)
	return lo.Angle + (hi.Angle-lo.Angle)*t
}

// composeWorld walks the parent chain accumulating angles and positions.
// The procedural channel's position offset moves the armature root and its
// scale multiplies every offset and bone length.
func composeWorld(md *components.ModelData, ad *components.ArmatureData) {
	scale := 1.0
	var offX, offY float64
	if md.State != nil {
		if s := md.State.Scale.X(); s > 0 {
			scale = s
		}
		offX = md.State.Position.X()
		offY = md.State.Position.Y()
	}
	root := mgl64.Vec3{md.Anchor.X + offX, md.Anchor.Y + offY, 0}

	for _, name := range ad.Order {
		b := ad.Bones[name]

		base := root
		parentAngle := 0.0
		if b.Def.Parent != "" {
			if p, ok := ad.Bones[b.Def.Parent]; ok {
				base = p.WorldBase
				parentAngle = p.WorldAngle
			}
		}

		pr := mgl64.DegToRad(parentAngle)
		sin, cos := math.Sin(pr), math.Cos(pr)
		base = base.Add(mgl64.Vec3{
			(b.Def.X*cos - b.Def.Y*sin) * scale,
			(b.Def.X*sin + b.Def.Y*cos) * scale,
			0,
		})

		worldAngle := parentAngle + b.Angle
		wr := mgl64.DegToRad(worldAngle)
		tip := base.Add(mgl64.Vec3{
			math.Cos(wr) * b.Def.Length * scale,
			math.Sin(wr) * b.Def.Length * scale,
			0,
		})

		b.WorldBase = base
		b.WorldTip = tip
		b.WorldAngle = worldAngle
		b.WorldRot = mgl64.QuatRotate(wr, mgl64.Vec3{0, 0, 1})
	}
}

// publishBones refreshes the engine's bone index. Bone-bound effects spawn
// at the bone tip, so the tip is what gets published.
func publishBones(eng *components.EngineData, md *components.ModelData, ad *components.ArmatureData) {
	for _, name := range ad.Order {
		b := ad.Bones[name]
		eng.Bones.Set(manifest.BoneRef(md.ID, name), b.WorldTip, b.WorldRot)
	}
}
