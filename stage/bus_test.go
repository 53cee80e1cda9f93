package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.OnTick(func(TickEvent) { got = append(got, "a") })
	bus.OnTick(func(TickEvent) { got = append(got, "b") })
	bus.OnTick(func(TickEvent) { got = append(got, "c") })

	bus.EmitTick(TickEvent{Time: 1})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	calls := 0
	cancel := bus.OnSeek(func(SeekEvent) { calls++ })

	bus.EmitSeek(SeekEvent{Time: 1})
	cancel()
	cancel()
	bus.EmitSeek(SeekEvent{Time: 2})

	assert.Equal(t, 1, calls)
}

func TestBusUnsubscribeDuringEmitIsSafe(t *testing.T) {
	bus := NewBus()

	var got []string
	var cancelB func()
	bus.OnTick(func(TickEvent) {
		got = append(got, "a")
		cancelB()
	})
	cancelB = bus.OnTick(func(TickEvent) { got = append(got, "b") })

	// The in-flight emit still sees the snapshot taken at emit start.
	bus.EmitTick(TickEvent{})
	assert.Equal(t, []string{"a", "b"}, got)

	bus.EmitTick(TickEvent{})
	assert.Equal(t, []string{"a", "b", "a"}, got)
}

func TestBusCategoriesAreIndependent(t *testing.T) {
	bus := NewBus()

	ticks, seeks, clips, procs := 0, 0, 0, 0
	bus.OnTick(func(TickEvent) { ticks++ })
	bus.OnSeek(func(SeekEvent) { seeks++ })
	bus.OnClipUpdate(func(ClipUpdateEvent) { clips++ })
	bus.OnProceduralUpdate(func(ProceduralUpdateEvent) { procs++ })

	bus.EmitClipUpdate(ClipUpdateEvent{})
	bus.EmitProceduralUpdate(ProceduralUpdateEvent{})

	assert.Equal(t, 0, ticks)
	assert.Equal(t, 0, seeks)
	assert.Equal(t, 1, clips)
	assert.Equal(t, 1, procs)
}

func TestBusClearSilencesEverything(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.OnTick(func(TickEvent) { calls++ })
	bus.OnSeek(func(SeekEvent) { calls++ })
	bus.OnClipUpdate(func(ClipUpdateEvent) { calls++ })
	bus.OnProceduralUpdate(func(ProceduralUpdateEvent) { calls++ })

	bus.Clear()

	bus.EmitTick(TickEvent{})
	bus.EmitSeek(SeekEvent{})
	bus.EmitClipUpdate(ClipUpdateEvent{})
	bus.EmitProceduralUpdate(ProceduralUpdateEvent{})

	assert.Equal(t, 0, calls)
}

func TestFeedSubscribeDuringEmitDefersToNext(t *testing.T) {
	var feed Feed[int]

	var got []int
	feed.Subscribe(func(v int) {
		got = append(got, v)
		if v == 1 {
			feed.Subscribe(func(v int) { got = append(got, v*100) })
		}
	})

	feed.Emit(1)
	assert.Equal(t, []int{1}, got)

	feed.Emit(2)
	assert.Equal(t, []int{1, 2, 200}, got)
}
