package components

import "github.com/yohamta/donburi"

// PlaybackData is the transport state driving the director timeline
// (singleton component).
type PlaybackData struct {
	Time     float64 // director-timeline seconds
	Duration float64 // cached from the director's schedule
	Playing  bool
	Looping  bool

	SpeedIndex int // index into cfg.Playback.SpeedSteps

	// Loop replay: after the timeline runs off the end with looping on, the
	// transport idles for the configured delay and then seeks back to zero.
	ReplayCountdown float64 // seconds remaining, 0 = not waiting

	// PendingSeek, when non-nil, is consumed by the playback system on the
	// next tick and routed through Director.Seek so trigger cursors reset.
	PendingSeek *float64

	// SelectedModel is the model ID the HUD highlights and the camera may
	// follow. Empty selects nothing.
	SelectedModel string
}

var Playback = donburi.NewComponentType[PlaybackData]()
