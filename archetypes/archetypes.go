package archetypes

import (
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

var (
	Model = newArchetype(
		tags.Model,
		components.Model,
		components.Armature,
		components.Object,
	)
	Effect = newArchetype(
		tags.Effect,
		components.VFX,
	)
	Backdrop = newArchetype(
		tags.Backdrop,
		components.Backdrop,
	)
	Space = newArchetype(
		components.Space,
	)
	Camera = newArchetype(
		components.Camera,
	)
	Playback = newArchetype(
		components.Playback,
	)
	Engine = newArchetype(
		components.Engine,
	)
	Timeline = newArchetype(
		components.Timeline,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(ecs *ecs.ECS, cs ...donburi.IComponentType) *donburi.Entry {
	e := ecs.World.Entry(ecs.Create(
		cfg.Default,
		append(a.components, cs...)...,
	))
	return e
}
