package stage

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Shared fakes for the engine tests: a recording runtime, a pose table
// standing in for the scene graph, a model store, and a manual clock.

type fakeHandle struct {
	alive      bool
	stops      int
	paused     bool
	shown      bool
	speed      float64
	transforms []mgl64.Mat4
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{alive: true, shown: true}
}

func (h *fakeHandle) Exists() bool            { return h.alive }
func (h *fakeHandle) SetPaused(paused bool)   { h.paused = paused }
func (h *fakeHandle) SetShown(shown bool)     { h.shown = shown }
func (h *fakeHandle) SetSpeed(speed float64)  { h.speed = speed }
func (h *fakeHandle) SetTransform(m mgl64.Mat4) {
	h.transforms = append(h.transforms, m)
}

func (h *fakeHandle) Stop() {
	h.stops++
	h.alive = false
}

func (h *fakeHandle) lastTransform() mgl64.Mat4 {
	return h.transforms[len(h.transforms)-1]
}

type fakeRuntime struct {
	refuse  bool
	plays   []PlayRequest
	handles []*fakeHandle
}

func (r *fakeRuntime) Play(req PlayRequest) (Handle, bool) {
	if r.refuse {
		return nil, false
	}
	h := newFakeHandle()
	r.plays = append(r.plays, req)
	r.handles = append(r.handles, h)
	return h, true
}

type bonePose struct {
	pos mgl64.Vec3
	rot mgl64.Quat
}

type fakeBones struct {
	poses map[BoneRef]bonePose
}

func newFakeBones() *fakeBones {
	return &fakeBones{poses: make(map[BoneRef]bonePose)}
}

func (b *fakeBones) set(ref BoneRef, pos mgl64.Vec3, rot mgl64.Quat) {
	b.poses[ref] = bonePose{pos: pos, rot: rot}
}

func (b *fakeBones) remove(ref BoneRef) {
	delete(b.poses, ref)
}

func (b *fakeBones) Pose(ref BoneRef) (mgl64.Vec3, mgl64.Quat, bool) {
	p, ok := b.poses[ref]
	if !ok {
		return mgl64.Vec3{}, mgl64.QuatIdent(), false
	}
	return p.pos, p.rot, true
}

type fakeStore struct {
	states map[string]*ModelState
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*ModelState)}
}

func (s *fakeStore) add(modelID string) *ModelState {
	st := &ModelState{
		Visible: true,
		Opacity: 1,
		Scale:   mgl64.Vec3{1, 1, 1},
	}
	s.states[modelID] = st
	return st
}

func (s *fakeStore) ModelState(modelID string) (*ModelState, bool) {
	st, ok := s.states[modelID]
	return st, ok
}

type manualClock struct {
	t time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Unix(1000, 0)}
}

func (c *manualClock) now() time.Time {
	return c.t
}

func (c *manualClock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

// rig bundles a fully wired scheduler stack for trigger and follow tests.
type rig struct {
	clock    *manualClock
	timers   *TimerSet
	runtime  *fakeRuntime
	bones    *fakeBones
	registry *FollowRegistry
	sched    *TriggerScheduler
}

func newRig() *rig {
	clock := newManualClock()
	timers := NewTimerSet(clock.now)
	runtime := &fakeRuntime{}
	bones := newFakeBones()
	registry := NewFollowRegistry(bones, timers)
	sched := NewTriggerScheduler(runtime, bones, registry, timers)
	return &rig{
		clock:    clock,
		timers:   timers,
		runtime:  runtime,
		bones:    bones,
		registry: registry,
		sched:    sched,
	}
}

// tickFrames advances the default cursor through the given frame numbers at
// the scheduler's frame rate.
func (r *rig) tickFrames(clip *Clip, effects []EffectDefinition, frames ...int) {
	for _, f := range frames {
		r.sched.OnTimeAdvance(float64(f)/r.sched.fps(), true, clip, effects)
	}
}

func worldEffect(id string, triggers ...Trigger) EffectDefinition {
	return EffectDefinition{
		ID:       id,
		Name:     id,
		Scale:    mgl64.Vec3{1, 1, 1},
		Speed:    1,
		Triggers: triggers,
		Loaded:   true,
	}
}

func boneEffect(id string, bone BoneRef, triggers ...Trigger) EffectDefinition {
	e := worldEffect(id, triggers...)
	e.Bone = bone
	return e
}
