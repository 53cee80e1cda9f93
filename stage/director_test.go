package stage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clipEntry(id string, at, duration float64) TrackEntry {
	return TrackEntry{
		Clip:     Clip{ID: id, Name: id, Start: 0, End: int(duration * DefaultFrameRate)},
		At:       at,
		Duration: duration,
	}
}

func collectClipUpdates(bus *Bus) *[]ClipUpdateEvent {
	var got []ClipUpdateEvent
	bus.OnClipUpdate(func(ev ClipUpdateEvent) { got = append(got, ev) })
	return &got
}

func collectProceduralUpdates(bus *Bus) *[]ProceduralUpdateEvent {
	var got []ProceduralUpdateEvent
	bus.OnProceduralUpdate(func(ev ProceduralUpdateEvent) { got = append(got, ev) })
	return &got
}

func TestTrackBoundariesEmitStartingAndEndingOnce(t *testing.T) {
	bus := NewBus()
	got := collectClipUpdates(bus)

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Entries: []TrackEntry{clipEntry("c1", 0, 1), clipEntry("c2", 1, 1)},
	}})

	for _, ts := range []float64{0, 0.5, 1.0, 1.5, 2.0} {
		d.Tick(ts, true)
	}

	counts := map[string]map[string]int{}
	for _, ev := range *got {
		if counts[ev.Clip.ID] == nil {
			counts[ev.Clip.ID] = map[string]int{}
		}
		if ev.Starting {
			counts[ev.Clip.ID]["start"]++
		}
		if ev.Ending {
			counts[ev.Clip.ID]["end"]++
		}
	}

	assert.Equal(t, 1, counts["c1"]["start"])
	assert.Equal(t, 1, counts["c1"]["end"])
	assert.Equal(t, 1, counts["c2"]["start"])
	assert.Equal(t, 1, counts["c2"]["end"], "leaving the last entry still ends it")
}

func TestPlainTicksCarryClipLocalTime(t *testing.T) {
	bus := NewBus()
	got := collectClipUpdates(bus)

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Entries: []TrackEntry{clipEntry("c1", 2, 1)},
	}})

	d.Tick(2.25, true)
	d.Tick(2.75, true)

	require.Len(t, *got, 2)
	first, second := (*got)[0], (*got)[1]
	assert.True(t, first.Starting)
	assert.InDelta(t, 0.25, first.LocalTime, 1e-9)
	assert.False(t, second.Starting)
	assert.False(t, second.Ending)
	assert.InDelta(t, 0.75, second.LocalTime, 1e-9)
	assert.Equal(t, "hero", second.ModelID)
}

func TestProceduralProgressClampsAndEmitsFinalFrame(t *testing.T) {
	bus := NewBus()
	got := collectProceduralUpdates(bus)

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Procedural: []ProceduralEntry{{
			ClipID:         "m1",
			Kind:           MoveBy,
			Start:          0,
			Duration:       2,
			TargetPosition: mgl64.Vec3{4, 0, 0},
		}},
	}})

	d.Tick(1, true) // mid-clip
	d.Tick(3, true) // jumped past the end: one final full-progress emit
	d.Tick(4, true) // well past: silent

	require.Len(t, *got, 2)
	assert.InDelta(t, 0.5, (*got)[0].Progress, 1e-9)
	assert.InDelta(t, 1.0, (*got)[1].Progress, 1e-9)
	assert.False(t, (*got)[1].IsClipStart)
}

func TestFadeEventsCarryFrameOpacity(t *testing.T) {
	bus := NewBus()
	got := collectProceduralUpdates(bus)

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Procedural: []ProceduralEntry{
			{ClipID: "in", Kind: FadeIn, Start: 0, Duration: 2, TargetOpacity: 0.8},
			{ClipID: "out", Kind: FadeOut, Start: 10, Duration: 2, TargetOpacity: 0},
		},
	}})

	d.Tick(1, true)
	d.Tick(11, true)

	require.Len(t, *got, 2)
	assert.InDelta(t, 0.4, (*got)[0].TargetOpacity, 1e-9, "fade-in ramps 0 -> target")
	assert.InDelta(t, 0.5, (*got)[1].TargetOpacity, 1e-9, "fade-out ramps 1 -> target")
}

func TestClipStartEmittedOnceAndRearmedBySeek(t *testing.T) {
	bus := NewBus()
	got := collectProceduralUpdates(bus)

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Procedural: []ProceduralEntry{{
			ClipID: "m1", Kind: MoveBy, Start: 1, Duration: 1,
		}},
	}})

	d.Tick(1.0, true)
	d.Tick(1.5, true)

	require.Len(t, *got, 2)
	assert.True(t, (*got)[0].IsClipStart)
	assert.False(t, (*got)[1].IsClipStart)

	// Scrubbing behind the clip re-arms it for a fresh baseline capture.
	d.Seek(0)
	d.Tick(1.2, true)

	require.Len(t, *got, 3)
	assert.True(t, (*got)[2].IsClipStart)
}

func TestSeekPublishesJumpWithOrigin(t *testing.T) {
	bus := NewBus()
	var got []SeekEvent
	bus.OnSeek(func(ev SeekEvent) { got = append(got, ev) })

	d := NewDirector(bus, nil)
	d.Tick(2, true)
	d.Seek(0.5)

	require.Len(t, got, 1)
	assert.InDelta(t, 0.5, got[0].Time, 1e-9)
	assert.InDelta(t, 2, got[0].From, 1e-9)
}

func TestTickEventCarriesDelta(t *testing.T) {
	bus := NewBus()
	var got []TickEvent
	bus.OnTick(func(ev TickEvent) { got = append(got, ev) })

	d := NewDirector(bus, nil)
	d.Tick(0.5, true)
	d.Tick(0.7, true)
	d.Tick(0.7, false)

	require.Len(t, got, 3)
	assert.InDelta(t, 0.5, got[0].Delta, 1e-9)
	assert.InDelta(t, 0.2, got[1].Delta, 1e-9)
	assert.InDelta(t, 0, got[2].Delta, 1e-9)
	assert.False(t, got[2].Playing)
}

func TestStopEndsActiveClipsAndResets(t *testing.T) {
	bus := NewBus()
	got := collectClipUpdates(bus)

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Entries: []TrackEntry{clipEntry("c1", 0, 2)},
	}})

	d.Tick(0.5, true)
	d.Stop()

	require.Len(t, *got, 2)
	last := (*got)[1]
	assert.True(t, last.Ending)
	assert.InDelta(t, 2, last.LocalTime, 1e-9, "stop reports the entry fully elapsed")

	// A fresh tick after Stop starts the clip over.
	d.Tick(0.5, true)
	require.Len(t, *got, 3)
	assert.True(t, (*got)[2].Starting)
}

func TestDurationSpansAllTracks(t *testing.T) {
	d := NewDirector(NewBus(), []Track{
		{ModelID: "a", Entries: []TrackEntry{clipEntry("c1", 0, 2)}},
		{
			ModelID:    "b",
			Entries:    []TrackEntry{clipEntry("c2", 1, 1.5)},
			Procedural: []ProceduralEntry{{ClipID: "f1", Kind: FadeIn, Start: 3, Duration: 0.5}},
		},
	})

	assert.InDelta(t, 3.5, d.Duration(), 1e-9)
}

// Director clip updates feed the trigger scheduler through the bus; a
// scheduled clip's trigger fires exactly once as its track plays through.
func TestDirectorDrivenTriggerFiresOnce(t *testing.T) {
	r := newRig()
	bus := NewBus()

	effects := []EffectDefinition{
		worldEffect("spark", Trigger{ID: "t1", ClipID: "c1", Frame: 30}),
	}
	bus.OnClipUpdate(func(ev ClipUpdateEvent) {
		clip := ev.Clip
		r.sched.OnTimeAdvanceFor(ev.ModelID, ev.LocalTime, ev.Playing, &clip, effects)
	})

	d := NewDirector(bus, []Track{{
		ModelID: "hero",
		Entries: []TrackEntry{clipEntry("c1", 0, 2)},
	}})

	for _, ts := range []float64{0, 0.5, 1.1, 1.2, 1.9} {
		d.Tick(ts, true)
	}

	assert.Len(t, r.runtime.plays, 1)
}
