package stage

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

type followKey struct {
	EffectID  string
	TriggerID string
}

type trackedEffect struct {
	handle      Handle
	bone        BoneRef
	offset      mgl64.Vec3
	offsetRot   mgl64.Quat
	scale       mgl64.Vec3
	cancelTimer func() // nil when the entry has no pending duration stop
}

// FollowRegistry owns the currently-playing, bone-attached effect
// instances and re-poses them once per render tick. At most one live entry
// exists per (effect, trigger) key; re-registering tears the old one down
// first. Handles that stop existing on the runtime side are swept lazily
// during UpdateAll, which is exactly the render cadence.
type FollowRegistry struct {
	// Logger receives sweep diagnostics. Defaults to a disabled logger.
	Logger zerolog.Logger

	bones   BoneQuery
	timers  *TimerSet
	entries map[followKey]*trackedEffect
}

// NewFollowRegistry builds a registry reading bone poses from bones and
// scheduling duration stops on timers. Both are required.
func NewFollowRegistry(bones BoneQuery, timers *TimerSet) *FollowRegistry {
	return &FollowRegistry{
		Logger:  zerolog.Nop(),
		bones:   bones,
		timers:  timers,
		entries: make(map[followKey]*trackedEffect),
	}
}

// RegisterWithTrigger installs handle as the live instance for
// (effectID, triggerID), tearing down any previous instance for the same
// key: its handle is stopped if still live and its pending duration timer
// is canceled. rotOffset is in degrees. A duration > 0 schedules an
// automatic stop that far in the future; the entry keeps the cancel
// function so every removal path can defuse it.
func (r *FollowRegistry) RegisterWithTrigger(effectID, triggerID string, handle Handle, bone BoneRef, offset, rotOffset, scale mgl64.Vec3, duration float64) {
	key := followKey{EffectID: effectID, TriggerID: triggerID}
	r.teardown(key, true)

	e := &trackedEffect{
		handle:    handle,
		bone:      bone,
		offset:    offset,
		offsetRot: QuatFromEulerDegrees(rotOffset),
		scale:     scale,
	}
	if duration > 0 {
		e.cancelTimer = r.timers.After(secondsToDuration(duration), func() {
			r.expire(key)
		})
	}
	r.entries[key] = e
}

// UpdateAll advances the duration timers to now, then recomputes every
// tracked instance's world transform from its bone's current pose. It must
// run once per render tick, after the host has finalized bone world
// transforms for that tick; calling it earlier re-poses effects against
// last tick's skeleton.
//
// Entries whose handle no longer exists are removed. Entries whose bone has
// vanished from the skeleton are stopped and removed rather than left
// frozen at their last pose.
func (r *FollowRegistry) UpdateAll(now time.Time) {
	r.timers.Advance(now)

	var stale []followKey
	for key, e := range r.entries {
		if !e.handle.Exists() {
			stale = append(stale, key)
			continue
		}
		pos, rot, ok := r.bones.Pose(e.bone)
		if !ok {
			r.Logger.Debug().
				Str("effect", key.EffectID).
				Str("trigger", key.TriggerID).
				Str("bone", string(e.bone)).
				Msg("bone lost, stopping tracked effect")
			e.handle.Stop()
			stale = append(stale, key)
			continue
		}
		wp, wr := ComposeChild(pos, rot, e.offset, e.offsetRot)
		e.handle.SetTransform(TRS(wp, wr, e.scale))
	}

	for _, key := range stale {
		if e, ok := r.entries[key]; ok {
			if e.cancelTimer != nil {
				e.cancelTimer()
			}
			delete(r.entries, key)
		}
	}
}

// Unregister detaches the entry for (effectID, triggerID) without stopping
// its handle: the instance keeps playing where it is, but is no longer
// re-posed. Its pending duration timer is canceled.
func (r *FollowRegistry) Unregister(effectID, triggerID string) {
	r.teardown(followKey{EffectID: effectID, TriggerID: triggerID}, false)
}

// StopByTrigger stops and removes the instance for (effectID, triggerID),
// if any.
func (r *FollowRegistry) StopByTrigger(effectID, triggerID string) {
	r.teardown(followKey{EffectID: effectID, TriggerID: triggerID}, true)
}

// StopAllByEffectID stops and removes every instance spawned by the given
// effect, across all of its triggers. Used when an effect definition is
// deleted in the editor.
func (r *FollowRegistry) StopAllByEffectID(effectID string) {
	for key := range r.entries {
		if key.EffectID == effectID {
			r.teardown(key, true)
		}
	}
}

// Clear stops and removes every tracked instance.
func (r *FollowRegistry) Clear() {
	for key := range r.entries {
		r.teardown(key, true)
	}
}

// SetPausedAll propagates transport pause to every live handle.
func (r *FollowRegistry) SetPausedAll(paused bool) {
	for _, e := range r.entries {
		if e.handle.Exists() {
			e.handle.SetPaused(paused)
		}
	}
}

// SetSpeedAll propagates a transport speed change to every live handle.
func (r *FollowRegistry) SetSpeedAll(speed float64) {
	for _, e := range r.entries {
		if e.handle.Exists() {
			e.handle.SetSpeed(speed)
		}
	}
}

// Len reports the number of tracked instances.
func (r *FollowRegistry) Len() int {
	return len(r.entries)
}

// Tracked reports whether (effectID, triggerID) currently has a live entry.
func (r *FollowRegistry) Tracked(effectID, triggerID string) bool {
	_, ok := r.entries[followKey{EffectID: effectID, TriggerID: triggerID}]
	return ok
}

func (r *FollowRegistry) teardown(key followKey, stop bool) {
	e, ok := r.entries[key]
	if !ok {
		return
	}
	if e.cancelTimer != nil {
		e.cancelTimer()
	}
	if stop && e.handle.Exists() {
		e.handle.Stop()
	}
	delete(r.entries, key)
}

// expire is the duration-timer callback: the timer already fired, so only
// the handle and the map entry are left to clean up.
func (r *FollowRegistry) expire(key followKey) {
	e, ok := r.entries[key]
	if !ok {
		return
	}
	if e.handle.Exists() {
		e.handle.Stop()
	}
	delete(r.entries, key)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
