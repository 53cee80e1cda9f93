package systems

import (
	"time"

	"github.com/hatoba/efkstage/components"
	"github.com/yohamta/donburi/ecs"
)

// UpdateFollowers runs the engine's follow sweep. Armatures have already
// finalized this tick's bone transforms, so every bone-bound effect lands
// on the current pose with no frame of lag. Duration timers advance on the
// same wall clock the sweep is given.
func UpdateFollowers(e *ecs.ECS) {
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)
	eng.Followers.UpdateAll(time.Now())
}
