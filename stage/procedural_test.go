package stage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fadeEvent(clipID, modelID string, opacity float64, start bool) ProceduralUpdateEvent {
	return ProceduralUpdateEvent{
		ClipID:        clipID,
		ModelID:       modelID,
		Kind:          FadeIn,
		TargetOpacity: opacity,
		IsClipStart:   start,
		TargetVisible: true,
	}
}

func TestFadeWritesOpacityNotVisibility(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")
	st.Visible = false // manual hide must survive the fade

	ch := NewProceduralChannel(store)
	ch.Enable()

	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.5, true))

	assert.InDelta(t, 0.5, st.Opacity, 1e-9)
	assert.False(t, st.Visible)
}

func TestRedundantOpacityWriteSuppressed(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")

	ch := NewProceduralChannel(store)
	ch.Enable()

	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.50, true))
	require.InDelta(t, 0.50, st.Opacity, 1e-9)

	// Poke the storage so a second write would be observable.
	st.Opacity = -1

	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.505, false))
	assert.InDelta(t, -1, st.Opacity, 1e-9, "sub-epsilon delta must not write")

	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.58, false))
	assert.InDelta(t, 0.58, st.Opacity, 1e-9)
}

func TestOpacityEpsilonTightensNearBounds(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")

	ch := NewProceduralChannel(store)
	ch.Enable()

	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 1.0, true))
	st.Opacity = -1

	// A 0.005 step is inside the coarse epsilon but near the opaque
	// bound the tighter one applies, so it writes.
	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.995, false))
	assert.InDelta(t, 0.995, st.Opacity, 1e-9)
}

func TestScaleToInterpolatesUniformlyFromFirstAxis(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")
	st.Scale = mgl64.Vec3{2, 5, 9}

	ch := NewProceduralChannel(store)
	ch.Enable()

	ev := ProceduralUpdateEvent{
		ClipID:      "s1",
		ModelID:     "hero",
		Kind:        ScaleTo,
		TargetScale: 4,
		IsClipStart: true,
	}
	ch.OnProceduralUpdate(ev)

	ev.IsClipStart = false
	ev.Progress = 0.5
	ch.OnProceduralUpdate(ev)

	// Halfway from the first axis (2) to the target (4), on all axes.
	assert.InDelta(t, 3, st.Scale.X(), 1e-5)
	assert.InDelta(t, 3, st.Scale.Y(), 1e-5)
	assert.InDelta(t, 3, st.Scale.Z(), 1e-5)

	ev.Progress = 1
	ch.OnProceduralUpdate(ev)
	assert.InDelta(t, 4, st.Scale.X(), 1e-5)
}

func TestMoveByDisplacesRelativeToClipStart(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")
	st.Position = mgl64.Vec3{1, 1, 1}

	ch := NewProceduralChannel(store)
	ch.Enable()

	ev := ProceduralUpdateEvent{
		ClipID:         "m1",
		ModelID:        "hero",
		Kind:           MoveBy,
		TargetPosition: mgl64.Vec3{2, 0, -4},
		IsClipStart:    true,
	}
	ch.OnProceduralUpdate(ev)

	ev.IsClipStart = false
	ev.Progress = 0.5
	ch.OnProceduralUpdate(ev)

	assert.InDelta(t, 2, st.Position.X(), 1e-5)
	assert.InDelta(t, 1, st.Position.Y(), 1e-5)
	assert.InDelta(t, -1, st.Position.Z(), 1e-5)
}

func TestClipStartCapturesLiveState(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")
	st.Position = mgl64.Vec3{0, 0, 0}

	ch := NewProceduralChannel(store)
	ch.Enable()

	first := ProceduralUpdateEvent{
		ClipID:         "m1",
		ModelID:        "hero",
		Kind:           MoveBy,
		TargetPosition: mgl64.Vec3{1, 0, 0},
		IsClipStart:    true,
	}
	ch.OnProceduralUpdate(first)
	first.IsClipStart = false
	first.Progress = 1
	ch.OnProceduralUpdate(first)
	require.InDelta(t, 1, st.Position.X(), 1e-5)

	// The user nudges the model between clips; the second clip must
	// chain from the nudged state, not the first clip's baseline.
	st.Position = mgl64.Vec3{10, 0, 0}

	second := ProceduralUpdateEvent{
		ClipID:         "m2",
		ModelID:        "hero",
		Kind:           MoveBy,
		TargetPosition: mgl64.Vec3{1, 0, 0},
		IsClipStart:    true,
	}
	ch.OnProceduralUpdate(second)
	second.IsClipStart = false
	second.Progress = 1
	ch.OnProceduralUpdate(second)

	assert.InDelta(t, 11, st.Position.X(), 1e-5)
}

func TestReplayRecapturesBaseline(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")

	ch := NewProceduralChannel(store)
	ch.Enable()

	ev := ProceduralUpdateEvent{
		ClipID:         "m1",
		ModelID:        "hero",
		Kind:           MoveBy,
		TargetPosition: mgl64.Vec3{2, 0, 0},
		IsClipStart:    true,
	}
	ch.OnProceduralUpdate(ev)
	ev.IsClipStart = false
	ev.Progress = 1
	ch.OnProceduralUpdate(ev)
	require.InDelta(t, 2, st.Position.X(), 1e-5)

	// Replaying the same clip re-captures from where the model is now,
	// so the displacement chains instead of rewinding.
	ev.IsClipStart = true
	ev.Progress = 0
	ch.OnProceduralUpdate(ev)
	ev.IsClipStart = false
	ev.Progress = 1
	ch.OnProceduralUpdate(ev)

	assert.InDelta(t, 4, st.Position.X(), 1e-5)
}

func TestDisableRestoresOriginals(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")
	st.Scale = mgl64.Vec3{2, 2, 2}
	st.Position = mgl64.Vec3{5, 6, 7}

	ch := NewProceduralChannel(store)
	ch.Enable()

	ch.OnProceduralUpdate(ProceduralUpdateEvent{
		ClipID:      "s1",
		ModelID:     "hero",
		Kind:        ScaleTo,
		TargetScale: 10,
		IsClipStart: true,
		Progress:    1,
	})
	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.2, true))
	st.Visible = false

	ch.Disable()

	assert.Equal(t, mgl64.Vec3{2, 2, 2}, st.Scale)
	assert.Equal(t, mgl64.Vec3{5, 6, 7}, st.Position)
	assert.InDelta(t, 1, st.Opacity, 1e-9)
	assert.True(t, st.Visible)
	assert.False(t, ch.Enabled())
}

func TestDisabledChannelIgnoresEvents(t *testing.T) {
	store := newFakeStore()
	st := store.add("hero")

	ch := NewProceduralChannel(store)
	ch.OnProceduralUpdate(fadeEvent("f1", "hero", 0.1, true))

	assert.InDelta(t, 1, st.Opacity, 1e-9)
}

func TestUnknownModelIsIgnored(t *testing.T) {
	ch := NewProceduralChannel(newFakeStore())
	ch.Enable()

	assert.NotPanics(t, func() {
		ch.OnProceduralUpdate(fadeEvent("f1", "ghost", 0.5, true))
	})
}
