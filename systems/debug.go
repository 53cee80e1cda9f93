package systems

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text" //nolint:staticcheck // TODO: migrate to text/v2
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/fonts"
	"github.com/hatoba/efkstage/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// UpdateDebug toggles the overlay.
func UpdateDebug(e *ecs.ECS) {
	if IsSettingsOpen(e) {
		return
	}
	input := getOrCreateInput(e)
	if GetAction(input, cfg.ActionToggleDebug).JustPressed {
		cfg.Debug.Overlay = !cfg.Debug.Overlay
	}
}

// DrawDebug renders the picking boxes and the engine counters. Hidden
// unless the overlay is enabled.
func DrawDebug(e *ecs.ECS, screen *ebiten.Image) {
	if !cfg.Debug.Overlay {
		return
	}

	view, ok := cameraView(e, screen)
	if !ok {
		return
	}

	spaceEntry, ok := components.Space.First(e.World)
	if ok {
		space := components.Space.Get(spaceEntry)
		for _, obj := range space.Objects() {
			c := color.RGBA{0, 255, 255, 255} // Cyan default
			if obj.HasTags(tags.ResolvAnchor) {
				c = color.RGBA{0, 255, 0, 255} // Green
			}
			x, y := view.point(obj.X, obj.Y)
			w := float32(obj.W * view.zoom)
			h := float32(obj.H * view.zoom)
			vector.StrokeRect(screen, x, y, w, h, 1, c, false)
		}
	}

	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)

	bones := 0
	effects := 0
	components.Armature.Each(e.World, func(entry *donburi.Entry) {
		bones += len(components.Armature.Get(entry).Bones)
	})
	tags.Effect.Each(e.World, func(entry *donburi.Entry) {
		effects++
	})

	lines := []string{
		fmt.Sprintf("entities %d  bones %d  instances %d", e.World.Len(), bones, effects),
		fmt.Sprintf("followers %d  fired %d", eng.Followers.Len(), eng.TriggersFired),
	}
	components.Model.Each(e.World, func(entry *donburi.Entry) {
		md := components.Model.Get(entry)
		cur := eng.Scheduler.Cursor(md.ID)
		lines = append(lines, fmt.Sprintf("%s cursor f%d t%.2f", md.ID, cur.LastFrame, cur.LastTime))
	})

	small := fonts.SansSmall.Get()
	y := int(cfg.HUD.Margin + cfg.HUD.LineHeight*2)
	for _, line := range lines {
		bounds := text.BoundString(small, line) //nolint:staticcheck // TODO: migrate to text/v2
		text.Draw(screen, line, small, screen.Bounds().Dx()-bounds.Dx()-int(cfg.HUD.Margin), y, cfg.LightGreen)
		y += int(cfg.HUD.LineHeight)
	}
}
