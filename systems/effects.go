package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hatoba/efkstage/archetypes"
	"github.com/hatoba/efkstage/assets"
	"github.com/hatoba/efkstage/assets/animations"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/stage"
	"github.com/hatoba/efkstage/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// Frames of white tint flash on a fresh spawn.
const spawnFlashFrames = 6

// VFXRuntime is the engine's effect backend: Play spawns a sprite-sheet
// effect entity and hands back a handle wrapping it. The trigger scheduler
// and follow registry drive instances exclusively through that handle.
type VFXRuntime struct {
	ecs *ecs.ECS
}

func NewVFXRuntime(e *ecs.ECS) *VFXRuntime {
	return &VFXRuntime{ecs: e}
}

// Play implements stage.EffectRuntime. ok=false when the effect ID is
// unknown or its sheet never loaded; the scheduler logs and drops the fire.
func (r *VFXRuntime) Play(req stage.PlayRequest) (stage.Handle, bool) {
	engineEntry, ok := components.Engine.First(r.ecs.World)
	if !ok {
		return nil, false
	}
	eng := components.Engine.Get(engineEntry)

	var def *stage.EffectDefinition
	for i := range eng.Effects {
		if eng.Effects[i].ID == req.EffectID {
			def = &eng.Effects[i]
			break
		}
	}
	if def == nil || !def.Loaded || !assets.HasAsset(def.Asset) {
		return nil, false
	}
	adef := cfg.EffectAssets[def.Asset]

	base := adef.BaseScale
	if base <= 0 {
		base = 1
	}

	anim := animations.NewAnimation(0, adef.FrameCount-1, 1, adef.SpeedInTps)
	// Hold the last frame until the destroy sweep, otherwise a one-shot
	// flashes its first frame again on the tick it finishes.
	anim.FreezeOnComplete = !adef.Looped

	entry := archetypes.Effect.Spawn(r.ecs)
	components.VFX.Set(entry, &components.VFXData{
		EffectID:  req.EffectID,
		Asset:     def.Asset,
		Anim:      anim,
		Frames:    assets.EffectFrames(def.Asset),
		Tint:      def.Color,
		Additive:  adef.Additive,
		X:         req.Position.X(),
		Y:         req.Position.Y(),
		RotationZ: req.Rotation.Z(),
		ScaleX:      scaleOrUnit(req.Scale.X()) * base,
		ScaleY:      scaleOrUnit(req.Scale.Y()) * base,
		Speed:       speedOrUnit(req.Speed),
		Managed:     def.Bone != "",
		RateScale:   1,
		Alive:       true,
		FlashFrames: spawnFlashFrames,
	})

	// World-space spawns kick the camera; bone-bound ones ride the bone
	// and stay quiet.
	if def.Bone == "" {
		TriggerScreenShake(r.ecs, cfg.ScreenShake.SpawnIntensity, cfg.ScreenShake.SpawnDuration)
	}

	return &effectHandle{entry: entry}, true
}

// effectHandle adapts one effect entity to stage.Handle. Every method is a
// no-op once the instance finished or was destroyed, which the engine
// relies on when duration timers race natural expiry.
type effectHandle struct {
	entry *donburi.Entry
}

func (h *effectHandle) data() (*components.VFXData, bool) {
	if h.entry == nil || !h.entry.Valid() || !h.entry.HasComponent(components.VFX) {
		return nil, false
	}
	d := components.VFX.Get(h.entry)
	if !d.Alive {
		return nil, false
	}
	return d, true
}

func (h *effectHandle) Exists() bool {
	_, ok := h.data()
	return ok
}

func (h *effectHandle) Stop() {
	if d, ok := h.data(); ok {
		d.Alive = false
	}
}

func (h *effectHandle) SetPaused(paused bool) {
	if d, ok := h.data(); ok {
		d.Paused = paused
	}
}

func (h *effectHandle) SetShown(shown bool) {
	if d, ok := h.data(); ok {
		d.Hidden = !shown
	}
}

// SetSpeed scales the playback rate without touching the definition's own
// speed, so a transport speed change and the effect's configured speed
// stack instead of clobbering each other.
func (h *effectHandle) SetSpeed(speed float64) {
	if d, ok := h.data(); ok {
		d.RateScale = speedOrUnit(speed)
	}
}

// SetTransform decomposes the engine's composed world matrix back into the
// 2D fields the renderer draws from. Only the Z rotation survives the
// projection; bone poses here are Z-only so nothing is lost.
func (h *effectHandle) SetTransform(m mgl64.Mat4) {
	d, ok := h.data()
	if !ok {
		return
	}

	d.X = m.At(0, 3)
	d.Y = m.At(1, 3)

	sx := math.Hypot(m.At(0, 0), m.At(1, 0))
	sy := math.Hypot(m.At(0, 1), m.At(1, 1))
	d.RotationZ = math.Atan2(m.At(1, 0), m.At(0, 0))

	base := 1.0
	if adef, ok := cfg.EffectAssets[d.Asset]; ok && adef.BaseScale > 0 {
		base = adef.BaseScale
	}
	d.ScaleX = sx * base
	d.ScaleY = sy * base
}

// UpdateEffects advances every live instance's animation at the transport
// rate and removes finished one-shots. Stopped instances linger invisibly
// until this sweep so handle calls between ticks stay cheap no-ops.
func UpdateEffects(e *ecs.ECS) {
	rate := transportRate(e)

	var toDestroy []*donburi.Entry
	components.VFX.Each(e.World, func(entry *donburi.Entry) {
		vfx := components.VFX.Get(entry)
		if !vfx.Alive {
			toDestroy = append(toDestroy, entry)
			return
		}

		if vfx.FlashFrames > 0 {
			vfx.FlashFrames--
		}

		// Managed instances get their rate pushed through the handle by
		// the follow registry; the rest read the transport directly.
		r := rate
		if vfx.Managed {
			r = float32(vfx.RateScale)
		}
		if !vfx.Paused && r > 0 {
			vfx.Anim.UpdateWithRate(float32(vfx.Speed) * r)
		}

		adef, ok := cfg.EffectAssets[vfx.Asset]
		if ok && !adef.Looped && vfx.Anim.Looped {
			vfx.Alive = false
			toDestroy = append(toDestroy, entry)
		}
	})

	for _, entry := range toDestroy {
		entry.Remove()
	}
}

// DestroyAllEffects removes every effect instance immediately. Stop and
// scene teardown use it so nothing plays over a fresh session.
func DestroyAllEffects(e *ecs.ECS) {
	var toDestroy []*donburi.Entry
	tags.Effect.Each(e.World, func(entry *donburi.Entry) {
		toDestroy = append(toDestroy, entry)
	})
	for _, entry := range toDestroy {
		entry.Remove()
	}
}

// transportRate is the animation rate multiplier from the transport: the
// speed step while playing, zero while paused so effects freeze with the
// playhead.
func transportRate(e *ecs.ECS) float32 {
	playbackEntry, ok := components.Playback.First(e.World)
	if !ok {
		return 1
	}
	pb := components.Playback.Get(playbackEntry)
	if !pb.Playing {
		return 0
	}
	return float32(cfg.Playback.SpeedSteps[pb.SpeedIndex])
}

func scaleOrUnit(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func speedOrUnit(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
