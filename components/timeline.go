package components

import "github.com/yohamta/donburi"

// TimelineData stores the timeline strip's view state (singleton component)
type TimelineData struct {
	Visible bool

	// ScrollX is the horizontal scroll offset in pixels. The update system
	// auto-scrolls to keep the playhead in view while playing.
	ScrollX float64

	// Scrubbing: true while the left mouse button drags inside the strip.
	Scrubbing bool

	// Hover feedback from the picking pass, cleared each tick.
	HoverModelID string
	HoverClipID  string
}

var Timeline = donburi.NewComponentType[TimelineData]()
