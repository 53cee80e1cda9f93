package stage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFiresAtDeadline(t *testing.T) {
	clock := newManualClock()
	ts := NewTimerSet(clock.now)

	fired := 0
	ts.After(time.Second, func() { fired++ })

	assert.Equal(t, 0, ts.Advance(clock.advance(999*time.Millisecond)))
	assert.Equal(t, 0, fired)

	assert.Equal(t, 1, ts.Advance(clock.advance(time.Millisecond)))
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, ts.Len())
}

func TestTimerCancelPreventsFire(t *testing.T) {
	clock := newManualClock()
	ts := NewTimerSet(clock.now)

	fired := 0
	cancel := ts.After(time.Second, func() { fired++ })
	cancel()

	ts.Advance(clock.advance(2 * time.Second))
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, ts.Len())
}

func TestTimerCancelAfterFireIsNoop(t *testing.T) {
	clock := newManualClock()
	ts := NewTimerSet(clock.now)

	cancel := ts.After(time.Second, func() {})
	ts.Advance(clock.advance(2 * time.Second))

	cancel()
	cancel()
	assert.Equal(t, 0, ts.Len())
}

func TestTimersFireInScheduleOrder(t *testing.T) {
	clock := newManualClock()
	ts := NewTimerSet(clock.now)

	var order []string
	ts.After(2*time.Second, func() { order = append(order, "late") })
	ts.After(time.Second, func() { order = append(order, "early") })
	ts.After(time.Second, func() { order = append(order, "early2") })

	ts.Advance(clock.advance(3 * time.Second))
	assert.Equal(t, []string{"early", "early2", "late"}, order)
}

func TestCallbackMayScheduleFollowup(t *testing.T) {
	clock := newManualClock()
	ts := NewTimerSet(clock.now)

	fired := 0
	ts.After(time.Second, func() {
		ts.After(0, func() { fired++ })
	})

	// The follow-up is due immediately but waits for the next sweep.
	ts.Advance(clock.advance(time.Second))
	assert.Equal(t, 0, fired)

	ts.Advance(clock.now())
	assert.Equal(t, 1, fired)
}

func TestCallbackMayCancelPeer(t *testing.T) {
	clock := newManualClock()
	ts := NewTimerSet(clock.now)

	peerFired := 0
	cancelPeer := ts.After(time.Second, func() { peerFired++ })
	ts.After(500*time.Millisecond, func() { cancelPeer() })

	ts.Advance(clock.advance(2 * time.Second))
	assert.Equal(t, 0, peerFired)
}
