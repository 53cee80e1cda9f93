package stage

import (
	"math"

	"github.com/rs/zerolog"
)

// PlaybackCursor is per-consumer trigger state: the last playback time
// processed and the frame it quantized to. LastFrame -1 means "no prior
// frame", either before the first tick or just after a backward jump, and
// makes frame-0 triggers eligible again.
type PlaybackCursor struct {
	LastTime  float64
	LastFrame int
}

// TriggerScheduler turns advancing playback time into effect spawns. Each
// tick it quantizes the previous and current time to frames and fires every
// trigger whose frame lies in (previousFrame, currentFrame] — exactly once
// per crossing, even when a tick skips several frames. A backward time jump
// (loop wrap, user scrub) resets the cursor and suppresses all firing for
// that tick.
//
// In director mode the scheduler keeps an independent cursor per model so
// tracks loop and seek without disturbing each other.
type TriggerScheduler struct {
	// FrameRate is the frame quantization rate. Defaults to
	// DefaultFrameRate.
	FrameRate float64
	// Logger receives fire/drop diagnostics. Defaults to a disabled
	// logger.
	Logger zerolog.Logger
	// OnFired, when set, is called synchronously after each successful
	// spawn. Hosts hang audition cues and HUD feedback off it.
	OnFired func(FiredTrigger)

	runtime  EffectRuntime
	bones    BoneQuery
	registry *FollowRegistry
	timers   *TimerSet
	cursors  map[string]*PlaybackCursor
}

// NewTriggerScheduler wires a scheduler to its collaborators: the runtime
// that spawns instances, the bone query used to compose bone-bound spawn
// transforms, the registry that adopts bone-bound handles, and the timer
// set for standalone duration stops.
func NewTriggerScheduler(runtime EffectRuntime, bones BoneQuery, registry *FollowRegistry, timers *TimerSet) *TriggerScheduler {
	return &TriggerScheduler{
		FrameRate: DefaultFrameRate,
		Logger:    zerolog.Nop(),
		runtime:   runtime,
		bones:     bones,
		registry:  registry,
		timers:    timers,
		cursors:   make(map[string]*PlaybackCursor),
	}
}

// OnTimeAdvance processes one tick of the default (single-model) playback
// channel. time is clip-local seconds.
func (s *TriggerScheduler) OnTimeAdvance(time float64, playing bool, clip *Clip, effects []EffectDefinition) {
	s.OnTimeAdvanceFor("", time, playing, clip, effects)
}

// OnTimeAdvanceFor processes one tick for the given model's cursor.
// Director-mode consumers route each ClipUpdateEvent here with its model
// ID.
func (s *TriggerScheduler) OnTimeAdvanceFor(modelID string, time float64, playing bool, clip *Clip, effects []EffectDefinition) {
	if !playing || clip == nil {
		return
	}
	cur := s.cursor(modelID)

	if time < cur.LastTime {
		// Loop wrap or scrub. Reset so earlier frames become
		// eligible again, and fire nothing on the jump tick itself.
		cur.LastFrame = -1
		cur.LastTime = time
		s.Logger.Debug().
			Str("model", modelID).
			Float64("time", time).
			Msg("backward jump, cursor reset")
		return
	}

	prevFrame := cur.LastFrame
	curFrame := int(math.Floor(time * s.fps()))

	for i := range effects {
		eff := &effects[i]
		if !eff.Loaded {
			continue
		}
		for j := range eff.Triggers {
			trg := &eff.Triggers[j]
			if trg.ClipID != clip.ID {
				continue
			}
			if prevFrame < trg.Frame && trg.Frame <= curFrame {
				s.fire(eff, trg, clip)
			}
		}
	}

	cur.LastFrame = curFrame
	cur.LastTime = time
}

// Cursor returns a copy of the cursor for modelID ("" = default channel).
func (s *TriggerScheduler) Cursor(modelID string) PlaybackCursor {
	if cur, ok := s.cursors[modelID]; ok {
		return *cur
	}
	return PlaybackCursor{LastFrame: -1}
}

// ResetCursor forgets the cursor for modelID, as if that channel had never
// ticked.
func (s *TriggerScheduler) ResetCursor(modelID string) {
	delete(s.cursors, modelID)
}

// Reset forgets every cursor. Used on stop and on mode teardown.
func (s *TriggerScheduler) Reset() {
	s.cursors = make(map[string]*PlaybackCursor)
}

func (s *TriggerScheduler) cursor(modelID string) *PlaybackCursor {
	cur, ok := s.cursors[modelID]
	if !ok {
		cur = &PlaybackCursor{LastFrame: -1}
		s.cursors[modelID] = cur
	}
	return cur
}

func (s *TriggerScheduler) fps() float64 {
	if s.FrameRate > 0 {
		return s.FrameRate
	}
	return DefaultFrameRate
}

func (s *TriggerScheduler) fire(eff *EffectDefinition, trg *Trigger, clip *Clip) {
	req := PlayRequest{
		EffectID: eff.ID,
		Position: eff.Position,
		Rotation: Radians(eff.Rotation),
		Scale:    eff.Scale,
		Speed:    eff.Speed,
	}
	if eff.Bone != "" {
		if pos, rot, ok := s.bones.Pose(eff.Bone); ok {
			wp, wr := ComposeChild(pos, rot, eff.Position, QuatFromEulerDegrees(eff.Rotation))
			req.Position = wp
			req.Rotation = EulerFromQuat(wr)
		}
		// A missing bone falls through to a world-space spawn; the
		// registry sweep settles the rest.
	}

	handle, ok := s.runtime.Play(req)
	if !ok {
		s.Logger.Debug().
			Str("effect", eff.ID).
			Str("trigger", trg.ID).
			Msg("runtime refused play")
		return
	}

	switch {
	case eff.Bone != "":
		s.registry.RegisterWithTrigger(eff.ID, trg.ID, handle, eff.Bone, eff.Position, eff.Rotation, eff.Scale, trg.Duration)
	case trg.Duration > 0:
		s.timers.After(secondsToDuration(trg.Duration), handle.Stop)
	}

	s.Logger.Debug().
		Str("effect", eff.ID).
		Str("trigger", trg.ID).
		Int("frame", trg.Frame).
		Msg("trigger fired")

	if s.OnFired != nil {
		s.OnFired(FiredTrigger{
			EffectID:  eff.ID,
			TriggerID: trg.ID,
			ClipID:    clip.ID,
			Frame:     trg.Frame,
			Bone:      eff.Bone,
		})
	}
}
