package systems

import (
	"math"

	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

func UpdateCamera(e *ecs.ECS) {
	cameraEntry, ok := components.Camera.First(e.World)
	if !ok {
		return
	}
	camera := components.Camera.Get(cameraEntry)

	updateScreenShake(cameraEntry, camera)

	if camera.Zoom <= 0 {
		camera.Zoom = 1
	}

	var pb *components.PlaybackData
	if playbackEntry, ok := components.Playback.First(e.World); ok {
		pb = components.Playback.Get(playbackEntry)
	}

	// A selection change (Tab cycling, anchor click) re-arms follow.
	if pb != nil && pb.SelectedModel != camera.LastSelected {
		camera.LastSelected = pb.SelectedModel
		camera.FollowModel = pb.SelectedModel
	}

	inputEntry, ok := components.Input.First(e.World)
	if !ok || IsSettingsOpen(e) {
		return
	}
	input := components.Input.Get(inputEntry)

	// Manual pan moves in screen pixels, so it stays constant-speed under
	// zoom, and breaks follow.
	pan := cfg.Camera.PanSpeed / camera.Zoom
	panned := false
	if GetAction(input, cfg.ActionPanLeft).Pressed {
		camera.Position.X -= pan
		panned = true
	}
	if GetAction(input, cfg.ActionPanRight).Pressed {
		camera.Position.X += pan
		panned = true
	}
	if GetAction(input, cfg.ActionPanUp).Pressed {
		camera.Position.Y -= pan
		panned = true
	}
	if GetAction(input, cfg.ActionPanDown).Pressed {
		camera.Position.Y += pan
		panned = true
	}
	if panned {
		camera.FollowModel = ""
	}

	if GetAction(input, cfg.ActionZoomIn).JustPressed {
		camera.Zoom = clampZoom(camera.Zoom * cfg.Camera.ZoomStep)
	}
	if GetAction(input, cfg.ActionZoomOut).JustPressed {
		camera.Zoom = clampZoom(camera.Zoom / cfg.Camera.ZoomStep)
	}

	if GetAction(input, cfg.ActionResetCamera).JustPressed {
		resetCamera(e, camera)
	}

	if camera.FollowModel != "" {
		followModel(e, camera)
	}
}

// followModel eases the camera toward the followed model's armature root,
// lifted a bit above the floor so the skeleton sits in frame.
func followModel(e *ecs.ECS, camera *components.CameraData) {
	components.Model.Each(e.World, func(entry *donburi.Entry) {
		md := components.Model.Get(entry)
		if md.ID != camera.FollowModel {
			return
		}
		targetX := md.Anchor.X
		targetY := md.Anchor.Y - 80
		if md.State != nil {
			targetX += md.State.Position.X()
			targetY += md.State.Position.Y()
		}
		camera.Position.X += (targetX - camera.Position.X) * cfg.Camera.FollowSmoothing
		camera.Position.Y += (targetY - camera.Position.Y) * cfg.Camera.FollowSmoothing
	})
}

// resetCamera recenters on the backdrop and restores 1x zoom.
func resetCamera(e *ecs.ECS, camera *components.CameraData) {
	camera.Zoom = 1
	camera.FollowModel = ""

	backdropEntry, ok := components.Backdrop.First(e.World)
	if !ok {
		camera.Position.X = float64(cfg.C.Width) / 2
		camera.Position.Y = float64(cfg.C.Height) / 2
		return
	}
	bd := components.Backdrop.Get(backdropEntry)
	if bd.Current == nil {
		return
	}
	camera.Position.X = float64(bd.Current.Width) / 2
	camera.Position.Y = bd.Current.FloorY - float64(cfg.C.Height)/4
}

func clampZoom(z float64) float64 {
	if z < cfg.Camera.MinZoom {
		return cfg.Camera.MinZoom
	}
	if z > cfg.Camera.MaxZoom {
		return cfg.Camera.MaxZoom
	}
	return z
}

// updateScreenShake recomputes this tick's shake offset and decrements the
// shake lifetime. The offset applies at render time only, so it never
// displaces the panned position.
func updateScreenShake(cameraEntry *donburi.Entry, camera *components.CameraData) {
	camera.ShakeX = 0
	camera.ShakeY = 0

	if !cameraEntry.HasComponent(components.ScreenShake) {
		return
	}

	shake := components.ScreenShake.Get(cameraEntry)
	shake.Elapsed++

	// Calculate decaying intensity
	progress := float64(shake.Duration-shake.Elapsed) / float64(shake.Duration)
	if progress < 0 {
		progress = 0
	}
	currentIntensity := shake.Intensity * progress

	// Apply oscillating offset using sine/cosine for smooth shake
	camera.ShakeX = math.Sin(float64(shake.Elapsed)*1.1) * currentIntensity
	camera.ShakeY = math.Cos(float64(shake.Elapsed)*1.3) * currentIntensity

	// Remove component when shake is complete
	if shake.Elapsed >= shake.Duration {
		cameraEntry.RemoveComponent(components.ScreenShake)
	}
}

// TriggerScreenShake starts a screen shake effect
func TriggerScreenShake(ecs *ecs.ECS, intensity float64, duration int) {
	cameraEntry, ok := components.Camera.First(ecs.World)
	if !ok {
		return
	}

	if intensity > cfg.ScreenShake.MaxIntensity {
		intensity = cfg.ScreenShake.MaxIntensity
	}

	// Add or update screen shake component
	if cameraEntry.HasComponent(components.ScreenShake) {
		shake := components.ScreenShake.Get(cameraEntry)
		// Only override if new shake is stronger
		if intensity > shake.Intensity {
			shake.Intensity = intensity
			shake.Duration = duration
			shake.Elapsed = 0
		}
	} else {
		cameraEntry.AddComponent(components.ScreenShake)
		components.ScreenShake.Set(cameraEntry, &components.ScreenShakeData{
			Intensity: intensity,
			Duration:  duration,
			Elapsed:   0,
		})
	}
}
