package stage

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// TrackEntry schedules one animation clip on the shared director timeline.
// At and Duration are director-timeline seconds.
type TrackEntry struct {
	Clip     Clip
	At       float64
	Duration float64
}

func (e *TrackEntry) covers(t float64) bool {
	return t >= e.At && t < e.At+e.Duration
}

// ProceduralEntry schedules one procedural clip on the shared timeline.
// Kind selects the variant; the Target fields mirror ProceduralUpdateEvent.
type ProceduralEntry struct {
	ClipID   string
	Kind     ProceduralKind
	Start    float64
	Duration float64

	TargetVisible  bool
	TargetOpacity  float64
	TargetScale    float64
	TargetPosition mgl64.Vec3
}

// Track is one model's schedule in director mode: clip entries that drive
// trigger playback plus procedural entries that drive model state.
type Track struct {
	ModelID    string
	Entries    []TrackEntry
	Procedural []ProceduralEntry
}

// Director coordinates multi-model playback: it walks every track against
// one shared timeline and publishes per-model clip and procedural updates
// through the bus. It never calls consumers directly, so trigger cursors
// and the procedural channel subscribe without the director knowing them.
type Director struct {
	// Logger receives track-boundary diagnostics. Defaults to a disabled
	// logger.
	Logger zerolog.Logger

	bus    *Bus
	tracks []Track

	active   map[string]int  // track model ID -> active entry index, -1 none
	started  map[string]bool // procedural clip IDs already given IsClipStart
	lastTime float64
}

// NewDirector builds a director publishing on bus for the given tracks.
func NewDirector(bus *Bus, tracks []Track) *Director {
	d := &Director{
		Logger: zerolog.Nop(),
		bus:    bus,
		tracks: tracks,
	}
	d.resetState()
	return d
}

// Tick advances the shared timeline to t and publishes: the raw tick, one
// clip update per track with an active entry (Starting/Ending marking the
// boundary ticks), and one procedural update per covering procedural
// entry, with progress clamped to [0,1].
func (d *Director) Tick(t float64, playing bool) {
	d.bus.EmitTick(TickEvent{Time: t, Delta: t - d.lastTime, Playing: playing})

	for i := range d.tracks {
		d.tickTrack(&d.tracks[i], t, playing)
	}

	d.lastTime = t
}

// Seek jumps the shared timeline to t, publishing a seek event and
// re-arming clip-start capture for procedural entries at or after the new
// position so a backward scrub replays them from a fresh baseline.
func (d *Director) Seek(t float64) {
	d.bus.EmitSeek(SeekEvent{Time: t, From: d.lastTime})
	for i := range d.tracks {
		for j := range d.tracks[i].Procedural {
			p := &d.tracks[i].Procedural[j]
			if p.Start >= t {
				delete(d.started, p.ClipID)
			}
		}
	}
	d.lastTime = t
}

// Stop ends the session: every active track gets a final Ending clip
// update and all boundary state resets, so the next Tick starts clean.
func (d *Director) Stop() {
	for i := range d.tracks {
		tr := &d.tracks[i]
		idx, ok := d.active[tr.ModelID]
		if !ok || idx < 0 {
			continue
		}
		e := &tr.Entries[idx]
		d.bus.EmitClipUpdate(ClipUpdateEvent{
			ModelID:   tr.ModelID,
			Clip:      e.Clip,
			LocalTime: e.Duration,
			Ending:    true,
		})
	}
	d.resetState()
}

// Duration returns the end of the last scheduled entry across all tracks.
func (d *Director) Duration() float64 {
	var end float64
	for i := range d.tracks {
		for _, e := range d.tracks[i].Entries {
			if v := e.At + e.Duration; v > end {
				end = v
			}
		}
		for _, p := range d.tracks[i].Procedural {
			if v := p.Start + p.Duration; v > end {
				end = v
			}
		}
	}
	return end
}

// Tracks returns the director's track table. Callers treat it as
// read-only.
func (d *Director) Tracks() []Track {
	return d.tracks
}

func (d *Director) resetState() {
	d.active = make(map[string]int)
	d.started = make(map[string]bool)
	d.lastTime = 0
}

func (d *Director) tickTrack(tr *Track, t float64, playing bool) {
	idx := -1
	for i := range tr.Entries {
		if tr.Entries[i].covers(t) {
			idx = i
			break
		}
	}

	prev, seen := d.active[tr.ModelID]
	if !seen {
		prev = -1
	}

	if idx != prev {
		if prev >= 0 {
			old := &tr.Entries[prev]
			d.bus.EmitClipUpdate(ClipUpdateEvent{
				ModelID:   tr.ModelID,
				Clip:      old.Clip,
				LocalTime: old.Duration,
				Playing:   playing,
				Ending:    true,
			})
		}
		if idx >= 0 {
			e := &tr.Entries[idx]
			d.Logger.Debug().
				Str("model", tr.ModelID).
				Str("clip", e.Clip.ID).
				Float64("at", t).
				Msg("track entered clip")
			d.bus.EmitClipUpdate(ClipUpdateEvent{
				ModelID:   tr.ModelID,
				Clip:      e.Clip,
				LocalTime: t - e.At,
				Playing:   playing,
				Starting:  true,
			})
		}
		d.active[tr.ModelID] = idx
	} else if idx >= 0 {
		e := &tr.Entries[idx]
		d.bus.EmitClipUpdate(ClipUpdateEvent{
			ModelID:   tr.ModelID,
			Clip:      e.Clip,
			LocalTime: t - e.At,
			Playing:   playing,
		})
	}

	for i := range tr.Procedural {
		p := &tr.Procedural[i]
		inside := t >= p.Start && t <= p.Start+p.Duration
		crossedEnd := d.lastTime < p.Start+p.Duration && t > p.Start+p.Duration
		if !inside && !crossedEnd {
			continue
		}
		progress := 1.0
		if p.Duration > 0 && inside {
			progress = clamp01((t - p.Start) / p.Duration)
		}
		isStart := !d.started[p.ClipID]
		d.started[p.ClipID] = true

		// Fades carry the frame's opacity, not the end value: fade-in
		// ramps 0 -> target, fade-out ramps 1 -> target.
		opacity := p.TargetOpacity
		switch p.Kind {
		case FadeIn:
			opacity = p.TargetOpacity * progress
		case FadeOut:
			opacity = 1 + (p.TargetOpacity-1)*progress
		}

		d.bus.EmitProceduralUpdate(ProceduralUpdateEvent{
			ClipID:         p.ClipID,
			ModelID:        tr.ModelID,
			Kind:           p.Kind,
			Progress:       progress,
			IsClipStart:    isStart,
			TargetVisible:  p.TargetVisible,
			TargetOpacity:  opacity,
			TargetScale:    p.TargetScale,
			TargetPosition: p.TargetPosition,
		})
	}
}
