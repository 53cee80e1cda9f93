package stage

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitScale = mgl64.Vec3{1, 1, 1}

func TestIdentityCompositionWritesBoneTransform(t *testing.T) {
	r := newRig()
	bonePos := mgl64.Vec3{2, 3, 4}
	boneRot := mgl64.QuatRotate(mgl64.DegToRad(35), mgl64.Vec3{0, 1, 0})
	r.bones.set("spine", bonePos, boneRot)

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("aura", "t1", h, "spine", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)
	r.registry.UpdateAll(r.clock.now())

	require.Len(t, h.transforms, 1)
	want := TRS(bonePos, boneRot, unitScale)
	assert.True(t, h.lastTransform().ApproxEqualThreshold(want, 1e-9),
		"zero offset and unit scale must reproduce the bone's own transform")
}

func TestOffsetRotatesThroughBoneOrientation(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{10, 20, 0}, mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}))

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, unitScale, 0)
	r.registry.UpdateAll(r.clock.now())

	require.Len(t, h.transforms, 1)
	m := h.lastTransform()
	assert.InDelta(t, 10, m.At(0, 3), 1e-9)
	assert.InDelta(t, 21, m.At(1, 3), 1e-9)
	assert.InDelta(t, 0, m.At(2, 3), 1e-9)
}

func TestFollowTracksMovingBone(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)

	r.registry.UpdateAll(r.clock.now())
	r.bones.set("hand", mgl64.Vec3{5, -1, 2}, mgl64.QuatIdent())
	r.registry.UpdateAll(r.clock.now())

	require.Len(t, h.transforms, 2)
	m := h.lastTransform()
	assert.InDelta(t, 5, m.At(0, 3), 1e-9)
	assert.InDelta(t, -1, m.At(1, 3), 1e-9)
	assert.InDelta(t, 2, m.At(2, 3), 1e-9)
}

func TestReRegisterTearsDownPriorInstance(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h1 := newFakeHandle()
	h2 := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h1, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 5)
	require.Equal(t, 1, r.timers.Len())

	r.registry.RegisterWithTrigger("flame", "t1", h2, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)

	assert.Equal(t, 1, r.registry.Len())
	assert.Equal(t, 1, h1.stops, "prior handle must be stopped")
	assert.Equal(t, 0, h2.stops)
	assert.Equal(t, 0, r.timers.Len(), "prior duration timer must be canceled")
}

func TestDeadHandleSweptLazily(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 3)
	h.alive = false

	r.registry.UpdateAll(r.clock.now())

	assert.Equal(t, 0, r.registry.Len())
	assert.Equal(t, 0, r.timers.Len(), "sweep must cancel the dead entry's timer")
	assert.Equal(t, 0, h.stops, "already-dead handle is not re-stopped")
}

func TestBoneLossStopsAndRemoves(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)
	r.registry.UpdateAll(r.clock.now())
	require.Len(t, h.transforms, 1)

	r.bones.remove("hand")
	r.registry.UpdateAll(r.clock.now())

	assert.Equal(t, 1, h.stops)
	assert.Equal(t, 0, r.registry.Len())
	assert.Len(t, h.transforms, 1, "no transform write after the bone vanished")
}

func TestDurationExpiryStopsExactlyOnce(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0.5)

	r.registry.UpdateAll(r.clock.advance(300 * time.Millisecond))
	assert.Equal(t, 0, h.stops)
	assert.Equal(t, 1, r.registry.Len())

	r.registry.UpdateAll(r.clock.advance(300 * time.Millisecond))
	assert.Equal(t, 1, h.stops)
	assert.Equal(t, 0, r.registry.Len())

	r.registry.UpdateAll(r.clock.advance(time.Second))
	assert.Equal(t, 1, h.stops)
}

func TestEarlyStopCancelsDurationTimer(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 5)
	r.registry.StopByTrigger("flame", "t1")

	assert.Equal(t, 1, h.stops)
	assert.Equal(t, 0, r.timers.Len())

	// Long after the would-be deadline, nothing fires against the key.
	r.registry.UpdateAll(r.clock.advance(10 * time.Second))
	assert.Equal(t, 1, h.stops)
}

func TestUnregisterDetachesWithoutStopping(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 5)
	r.registry.Unregister("flame", "t1")

	assert.True(t, h.alive, "unregister leaves the instance playing")
	assert.Equal(t, 0, r.registry.Len())
	assert.Equal(t, 0, r.timers.Len())
}

func TestStopAllByEffectIDRemovesEveryTrigger(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h1, h2, h3 := newFakeHandle(), newFakeHandle(), newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h1, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)
	r.registry.RegisterWithTrigger("flame", "t2", h2, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)
	r.registry.RegisterWithTrigger("smoke", "t1", h3, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)

	r.registry.StopAllByEffectID("flame")

	assert.Equal(t, 1, h1.stops)
	assert.Equal(t, 1, h2.stops)
	assert.Equal(t, 0, h3.stops)
	assert.Equal(t, 1, r.registry.Len())
	assert.True(t, r.registry.Tracked("smoke", "t1"))
}

func TestClearStopsEverything(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h1, h2 := newFakeHandle(), newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h1, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 2)
	r.registry.RegisterWithTrigger("smoke", "t1", h2, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)

	r.registry.Clear()

	assert.Equal(t, 1, h1.stops)
	assert.Equal(t, 1, h2.stops)
	assert.Equal(t, 0, r.registry.Len())
	assert.Equal(t, 0, r.timers.Len())
}

func TestTransportPropagation(t *testing.T) {
	r := newRig()
	r.bones.set("hand", mgl64.Vec3{}, mgl64.QuatIdent())

	h := newFakeHandle()
	r.registry.RegisterWithTrigger("flame", "t1", h, "hand", mgl64.Vec3{}, mgl64.Vec3{}, unitScale, 0)

	r.registry.SetPausedAll(true)
	assert.True(t, h.paused)

	r.registry.SetSpeedAll(0.25)
	assert.InDelta(t, 0.25, h.speed, 1e-9)
}
