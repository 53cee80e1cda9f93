package stage

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerFiresOncePerCrossing(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", Name: "Attack", End: 59}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 30}),
	}

	// Ticks land around the threshold but never on it; the crossing
	// 29 -> 31 must still fire exactly once.
	r.tickFrames(clip, effects, 28, 29, 31, 33)

	assert.Len(t, r.runtime.plays, 1)
}

func TestTriggerDoesNotRefireWithoutReset(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 120}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 30}),
	}

	r.tickFrames(clip, effects, 29, 30, 31, 45, 60, 90)

	assert.Len(t, r.runtime.plays, 1)
}

func TestBackwardJumpResetsAndSuppresses(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 120}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 30}),
	}

	r.tickFrames(clip, effects, 20, 40)
	require.Len(t, r.runtime.plays, 1)

	// Scrub back to frame 15. The trigger frame lies between the new
	// frame and the old cursor, but the jump tick must fire nothing.
	r.tickFrames(clip, effects, 15)
	assert.Len(t, r.runtime.plays, 1)
	assert.Equal(t, -1, r.sched.Cursor("").LastFrame)
	assert.InDelta(t, 0.5, r.sched.Cursor("").LastTime, 1e-9)

	// After the reset the trigger is eligible again.
	r.tickFrames(clip, effects, 31)
	assert.Len(t, r.runtime.plays, 2)
}

func TestFrameZeroTriggerFiresOnFirstTick(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 30}
	effects := []EffectDefinition{
		worldEffect("spawn", Trigger{ID: "t1", ClipID: "c1", Frame: 0}),
	}

	r.sched.OnTimeAdvance(0, true, clip, effects)

	assert.Len(t, r.runtime.plays, 1)
}

func TestPausedAndClipLessTicksAreNoops(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 60}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 10}),
	}

	r.sched.OnTimeAdvance(1.0, false, clip, effects)
	r.sched.OnTimeAdvance(1.0, true, nil, effects)

	assert.Empty(t, r.runtime.plays)
	assert.Equal(t, PlaybackCursor{LastFrame: -1}, r.sched.Cursor(""))
}

func TestUnloadedEffectNeverFires(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 60}
	eff := worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 10})
	eff.Loaded = false

	r.tickFrames(clip, []EffectDefinition{eff}, 5, 15)

	assert.Empty(t, r.runtime.plays)
}

func TestClipMatchingUsesStableID(t *testing.T) {
	r := newRig()
	// Display name collides with the trigger's clip ID; identity is the
	// ID field, so nothing may fire.
	clip := &Clip{ID: "c2", Name: "c1", End: 60}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 10}),
	}

	r.tickFrames(clip, effects, 5, 15)

	assert.Empty(t, r.runtime.plays)
}

func TestBoneBoundFireRegistersAndComposesSpawn(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}))

	clip := &Clip{ID: "c1", End: 60}
	eff := boneEffect("flame", "hand", Trigger{ID: "t1", ClipID: "c1", Frame: 10})
	eff.Position = mgl64.Vec3{1, 0, 0}

	r.tickFrames(clip, []EffectDefinition{eff}, 9, 10)

	require.Len(t, r.runtime.plays, 1)
	assert.True(t, r.registry.Tracked("flame", "t1"))

	// The offset (1,0,0) rotated through the bone's 90° yaw lands on
	// the Y axis.
	got := r.runtime.plays[0].Position
	assert.InDelta(t, 10, got.X(), 1e-9)
	assert.InDelta(t, 1, got.Y(), 1e-9)
	assert.InDelta(t, 0, got.Z(), 1e-9)
}

func TestMissingBoneFallsThroughToWorldSpawn(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 60}
	eff := boneEffect("flame", "gone", Trigger{ID: "t1", ClipID: "c1", Frame: 10})
	eff.Position = mgl64.Vec3{3, 4, 5}

	r.tickFrames(clip, []EffectDefinition{eff}, 9, 10)

	require.Len(t, r.runtime.plays, 1)
	assert.Equal(t, mgl64.Vec3{3, 4, 5}, r.runtime.plays[0].Position)
	// Still registered; the sweep resolves the missing bone.
	assert.True(t, r.registry.Tracked("flame", "t1"))
}

func TestStandaloneDurationStopsHandle(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 60}
	effects := []EffectDefinition{
		worldEffect("burst", Trigger{ID: "t1", ClipID: "c1", Frame: 10, Duration: 0.5}),
	}

	r.tickFrames(clip, effects, 9, 10)
	require.Len(t, r.runtime.handles, 1)
	h := r.runtime.handles[0]

	r.timers.Advance(r.clock.advance(400 * time.Millisecond))
	assert.Equal(t, 0, h.stops)

	r.timers.Advance(r.clock.advance(200 * time.Millisecond))
	assert.Equal(t, 1, h.stops)
}

func TestPlayFailureSkipsRegistration(t *testing.T) {
	r := newRig()
	r.runtime.refuse = true
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	clip := &Clip{ID: "c1", End: 60}
	effects := []EffectDefinition{
		boneEffect("flame", "hand", Trigger{ID: "t1", ClipID: "c1", Frame: 10}),
	}

	r.tickFrames(clip, effects, 9, 10)

	assert.Equal(t, 0, r.registry.Len())
	assert.Equal(t, 0, r.timers.Len())
}

func TestPerModelCursorsAreIndependent(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 120}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 30}),
	}

	r.sched.OnTimeAdvanceFor("hero", 1.5, true, clip, effects)
	require.Len(t, r.runtime.plays, 1)

	// A backward jump on one model must not reset the other.
	r.sched.OnTimeAdvanceFor("villain", 1.5, true, clip, effects)
	require.Len(t, r.runtime.plays, 2)

	r.sched.OnTimeAdvanceFor("hero", 0.1, true, clip, effects)
	assert.Equal(t, -1, r.sched.Cursor("hero").LastFrame)
	assert.Equal(t, 45, r.sched.Cursor("villain").LastFrame)
	assert.Len(t, r.runtime.plays, 2)
}

func TestResetCursorMakesTriggersEligible(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 60}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 10}),
	}

	r.tickFrames(clip, effects, 20)
	require.Len(t, r.runtime.plays, 1)

	r.sched.ResetCursor("")
	r.tickFrames(clip, effects, 20)
	assert.Len(t, r.runtime.plays, 2)
}

func TestConfigurableFrameRate(t *testing.T) {
	r := newRig()
	r.sched.FrameRate = 60
	clip := &Clip{ID: "c1", End: 120}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 30}),
	}

	// 0.4s at 60 fps is frame 24: not there yet.
	r.sched.OnTimeAdvance(0.4, true, clip, effects)
	assert.Empty(t, r.runtime.plays)

	// 0.6s at 60 fps is frame 36: crossed.
	r.sched.OnTimeAdvance(0.6, true, clip, effects)
	assert.Len(t, r.runtime.plays, 1)
}

func TestOnFiredHookObservesCrossings(t *testing.T) {
	r := newRig()
	var fired []FiredTrigger
	r.sched.OnFired = func(f FiredTrigger) { fired = append(fired, f) }

	clip := &Clip{ID: "c1", End: 60}
	effects := []EffectDefinition{
		worldEffect("slash", Trigger{ID: "t1", ClipID: "c1", Frame: 10}),
	}

	r.tickFrames(clip, effects, 9, 11)

	require.Len(t, fired, 1)
	assert.Equal(t, "slash", fired[0].EffectID)
	assert.Equal(t, "t1", fired[0].TriggerID)
	assert.Equal(t, "c1", fired[0].ClipID)
	assert.Equal(t, 10, fired[0].Frame)
}

func TestSpawnRotationIsRadians(t *testing.T) {
	r := newRig()
	clip := &Clip{ID: "c1", End: 60}
	eff := worldEffect("burst", Trigger{ID: "t1", ClipID: "c1", Frame: 10})
	eff.Rotation = mgl64.Vec3{0, 0, 90}

	r.tickFrames(clip, []EffectDefinition{eff}, 9, 10)

	require.Len(t, r.runtime.plays, 1)
	assert.InDelta(t, mgl64.DegToRad(90), r.runtime.plays[0].Rotation.Z(), 1e-9)
}
