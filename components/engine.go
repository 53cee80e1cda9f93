package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hatoba/efkstage/manifest"
	"github.com/hatoba/efkstage/stage"
	"github.com/yohamta/donburi"
)

// BoneIndex is the host's stage.BoneQuery: a flat table of world bone
// poses the armature system refreshes every tick before the follow
// registry runs.
type BoneIndex struct {
	poses map[stage.BoneRef]bonePose
}

type bonePose struct {
	pos mgl64.Vec3
	rot mgl64.Quat
}

func NewBoneIndex() *BoneIndex {
	return &BoneIndex{poses: make(map[stage.BoneRef]bonePose)}
}

func (b *BoneIndex) Set(ref stage.BoneRef, pos mgl64.Vec3, rot mgl64.Quat) {
	b.poses[ref] = bonePose{pos: pos, rot: rot}
}

func (b *BoneIndex) Remove(ref stage.BoneRef) {
	delete(b.poses, ref)
}

func (b *BoneIndex) Clear() {
	b.poses = make(map[stage.BoneRef]bonePose)
}

// Pose implements stage.BoneQuery.
func (b *BoneIndex) Pose(ref stage.BoneRef) (mgl64.Vec3, mgl64.Quat, bool) {
	p, ok := b.poses[ref]
	if !ok {
		return mgl64.Vec3{}, mgl64.QuatIdent(), false
	}
	return p.pos, p.rot, true
}

// ModelIndex is the host's stage.ModelStore: model IDs to the live render
// states owned by the model entities.
type ModelIndex struct {
	states map[string]*stage.ModelState
}

func NewModelIndex() *ModelIndex {
	return &ModelIndex{states: make(map[string]*stage.ModelState)}
}

func (m *ModelIndex) Register(id string, st *stage.ModelState) {
	m.states[id] = st
}

// ModelState implements stage.ModelStore.
func (m *ModelIndex) ModelState(id string) (*stage.ModelState, bool) {
	st, ok := m.states[id]
	return st, ok
}

// EngineData bundles the wired trigger/follow/procedural engine for one
// stage session (singleton component). Everything here is built by the
// engine factory and torn down when the scene changes.
type EngineData struct {
	Bus        *stage.Bus
	Director   *stage.Director
	Scheduler  *stage.TriggerScheduler
	Followers  *stage.FollowRegistry
	Procedural *stage.ProceduralChannel
	Timers     *stage.TimerSet
	Bones      *BoneIndex
	Models     *ModelIndex

	Manifest     *manifest.Manifest
	ManifestPath string

	// Runtime is the effect backend handed to the scheduler. Kept here so
	// a manifest reload can rewire the engine around the same backend.
	Runtime stage.EffectRuntime

	// OnFired and OnClipStart survive reload rewiring; the stage factory
	// re-hangs them off the fresh scheduler and bus.
	OnFired     func(stage.FiredTrigger)
	OnClipStart func(modelID, clipID string)

	// Effects is the live definition table the scheduler scans each tick.
	// The asset loader flips Loaded once a definition's sheet exists.
	Effects []stage.EffectDefinition

	Watcher *manifest.Watcher

	// HUD feedback
	TriggersFired int
	Status        string
	StatusFrames  int
}

var Engine = donburi.NewComponentType[EngineData]()
