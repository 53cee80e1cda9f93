package factory

import (
	"github.com/hatoba/efkstage/archetypes"
	"github.com/hatoba/efkstage/assets"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/yohamta/donburi/ecs"
)

// CreateCamera spawns the camera centered on the backdrop floor.
func CreateCamera(e *ecs.ECS, st *assets.Stage) {
	camera := archetypes.Camera.Spawn(e)

	data := components.CameraData{Zoom: 1}
	if st != nil {
		data.Position.X = float64(st.Width) / 2
		data.Position.Y = st.FloorY - float64(st.Height)/4
	} else {
		data.Position.X = float64(cfg.C.Width) / 2
		data.Position.Y = float64(cfg.C.Height) / 2
	}
	components.Camera.Set(camera, &data)
}
