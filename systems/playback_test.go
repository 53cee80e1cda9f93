package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hatoba/efkstage/archetypes"
	"github.com/hatoba/efkstage/assets/animations"
	"github.com/hatoba/efkstage/components"
	"github.com/hatoba/efkstage/manifest"
	"github.com/hatoba/efkstage/stage"
	"github.com/stretchr/testify/assert"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// recordingHandle counts the transport calls the follow registry fans out.
type recordingHandle struct {
	paused      bool
	speed       float64
	pausedCalls int
	speedCalls  int
}

func (h *recordingHandle) Exists() bool            { return true }
func (h *recordingHandle) Stop()                   {}
func (h *recordingHandle) SetPaused(p bool)        { h.paused = p; h.pausedCalls++ }
func (h *recordingHandle) SetTransform(mgl64.Mat4) {}
func (h *recordingHandle) SetShown(bool)           {}
func (h *recordingHandle) SetSpeed(s float64)      { h.speed = s; h.speedCalls++ }

func newTransportWorld(t *testing.T, playing bool, speedIndex int) (*ecs.ECS, *recordingHandle) {
	t.Helper()
	e := ecs.NewECS(donburi.NewWorld())

	followers := stage.NewFollowRegistry(components.NewBoneIndex(), stage.NewTimerSet(nil))
	h := &recordingHandle{}
	followers.RegisterWithTrigger("spark", "t1", h, "root",
		mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, 0)

	bus := stage.NewBus()
	engineEntry := archetypes.Engine.Spawn(e)
	components.Engine.SetValue(engineEntry, components.EngineData{
		Bus:       bus,
		Director:  stage.NewDirector(bus, nil),
		Followers: followers,
		Manifest:  &manifest.Manifest{},
	})

	playbackEntry := archetypes.Playback.Spawn(e)
	components.Playback.SetValue(playbackEntry, components.PlaybackData{
		Playing:    playing,
		SpeedIndex: speedIndex,
	})

	return e, h
}

func TestTransportPauseFansOutToTrackedHandles(t *testing.T) {
	e, h := newTransportWorld(t, false, 3) // 1.0x

	UpdatePlayback(e)

	assert.GreaterOrEqual(t, h.pausedCalls, 1)
	assert.True(t, h.paused, "paused transport must pause tracked instances")
	assert.Equal(t, 1.0, h.speed)
}

func TestTransportSpeedStepFansOutToTrackedHandles(t *testing.T) {
	e, h := newTransportWorld(t, true, 4) // 2.0x

	UpdatePlayback(e)

	assert.GreaterOrEqual(t, h.speedCalls, 1)
	assert.False(t, h.paused)
	assert.Equal(t, 2.0, h.speed, "speed step must reach tracked instances")
}

func spawnTestEffect(e *ecs.ECS, managed, paused bool) *components.VFXData {
	entry := archetypes.Effect.Spawn(e)
	components.VFX.Set(entry, &components.VFXData{
		EffectID:  "spark",
		Anim:      animations.NewAnimation(0, 9, 1, 1),
		Speed:     1,
		Managed:   managed,
		RateScale: 1,
		Paused:    paused,
		Alive:     true,
	})
	return components.VFX.Get(entry)
}

// A registry-driven instance advances by its handle-set rate even while the
// transport is paused; a free-standing instance freezes with the playhead.
func TestManagedEffectsAdvanceByHandleRateNotTransport(t *testing.T) {
	e := ecs.NewECS(donburi.NewWorld())
	playbackEntry := archetypes.Playback.Spawn(e)
	components.Playback.SetValue(playbackEntry, components.PlaybackData{Playing: false})

	managed := spawnTestEffect(e, true, false)
	managedPaused := spawnTestEffect(e, true, true)
	free := spawnTestEffect(e, false, false)

	UpdateEffects(e)
	UpdateEffects(e)

	assert.Greater(t, managed.Anim.Frame(), 0, "handle-driven instance keeps its own rate")
	assert.Equal(t, 0, managedPaused.Anim.Frame(), "handle pause freezes the instance")
	assert.Equal(t, 0, free.Anim.Frame(), "free-standing instance follows the paused transport")
}
