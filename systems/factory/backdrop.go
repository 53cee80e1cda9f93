package factory

import (
	"github.com/hatoba/efkstage/archetypes"
	"github.com/hatoba/efkstage/assets"
	"github.com/hatoba/efkstage/components"
	"github.com/yohamta/donburi/ecs"
)

// CreateBackdrop loads every embedded TMX stage and spawns the backdrop
// entity showing the first one. Returns the active stage so the caller can
// size the collision space and center the camera on it.
func CreateBackdrop(e *ecs.ECS) *assets.Stage {
	stages := assets.NewStageLoader().MustLoadStages()

	entry := archetypes.Backdrop.Spawn(e)
	components.Backdrop.Set(entry, &components.BackdropData{
		Current:    &stages[0],
		StageIndex: 0,
		Stages:     stages,
	})
	return &stages[0]
}
