package tags

import "github.com/yohamta/donburi"

var (
	Model    = donburi.NewTag().SetName("Model")
	Effect   = donburi.NewTag().SetName("Effect")
	Backdrop = donburi.NewTag().SetName("Backdrop")
)

// Resolv tags for mouse picking
const (
	ResolvAnchor        = "anchor"
	ResolvTimelineEntry = "timelineEntry"
	ResolvTimelineLane  = "timelineLane"
)
