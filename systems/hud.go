package systems

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text" //nolint:staticcheck // TODO: migrate to text/v2
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/fonts"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

const transportHints = "space play   s stop   ,/. step   [/] speed   l loop   t timeline   tab model   r reload"

// SetStatus shows a transient message on the HUD status line.
func SetStatus(eng *components.EngineData, msg string) {
	eng.Status = msg
	eng.StatusFrames = cfg.HUD.StatusDuration
}

// UpdateHUD ages out the transient status line.
func UpdateHUD(e *ecs.ECS) {
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)
	if eng.StatusFrames > 0 {
		eng.StatusFrames--
		if eng.StatusFrames == 0 {
			eng.Status = ""
		}
	}
}

// DrawHUD renders the transport readout in the top-left corner: playhead
// time and frame, speed and loop state, a clip line with progress bar per
// model, the engine counters, and the transient status message.
func DrawHUD(e *ecs.ECS, screen *ebiten.Image) {
	playbackEntry, ok := components.Playback.First(e.World)
	if !ok {
		return
	}
	pb := components.Playback.Get(playbackEntry)
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)

	font := fonts.Sans.Get()
	small := fonts.SansSmall.Get()

	margin := cfg.HUD.Margin
	lh := cfg.HUD.LineHeight
	y := margin + lh

	fps := cfg.Playback.FrameRate
	if eng.Manifest != nil {
		fps = eng.Manifest.EffectiveFrameRate(cfg.Playback.FrameRate)
	}

	state := "playing"
	switch {
	case pb.ReplayCountdown > 0:
		state = fmt.Sprintf("replay in %.1fs", pb.ReplayCountdown)
	case !pb.Playing:
		state = "paused"
	}
	loop := "loop off"
	if pb.Looping {
		loop = "loop on"
	}

	line := fmt.Sprintf("%06.2fs / %05.2fs  f%04d  %gx  %s  %s",
		pb.Time, pb.Duration, int(pb.Time*fps),
		cfg.Playback.SpeedSteps[pb.SpeedIndex], state, loop)
	text.Draw(screen, line, font, int(margin), int(y), cfg.HUD.TextColor)
	y += lh + 4

	// One line per model: name, active clip, clip-local progress bar.
	components.Model.Each(e.World, func(entry *donburi.Entry) {
		md := components.Model.Get(entry)

		clr := cfg.HUD.DimTextColor
		if md.ID == pb.SelectedModel {
			clr = cfg.HUD.TextColor
		}
		clip := md.ActiveClipName
		if clip == "" {
			clip = "-"
		}
		text.Draw(screen, fmt.Sprintf("%s: %s", md.ID, clip), small, int(margin), int(y), clr)

		barY := float32(y + 3)
		vector.DrawFilledRect(screen, float32(margin), barY,
			float32(cfg.HUD.ClipBarWidth), float32(cfg.HUD.ClipBarHeight),
			cfg.HUD.BarBgColor, false)
		if md.ClipDuration > 0 {
			ratio := md.ClipLocalTime / md.ClipDuration
			if ratio < 0 {
				ratio = 0
			}
			if ratio > 1 {
				ratio = 1
			}
			vector.DrawFilledRect(screen, float32(margin), barY,
				float32(cfg.HUD.ClipBarWidth*ratio), float32(cfg.HUD.ClipBarHeight),
				cfg.HUD.BarFgColor, false)
		}
		y += cfg.HUD.ClipBarGap
	})

	text.Draw(screen, fmt.Sprintf("triggers %d  followers %d", eng.TriggersFired, eng.Followers.Len()),
		small, int(margin), int(y), cfg.HUD.DimTextColor)

	// Key hints in the top-right corner.
	hintBounds := text.BoundString(small, transportHints) //nolint:staticcheck // TODO: migrate to text/v2
	hintX := screen.Bounds().Dx() - hintBounds.Dx() - int(margin)
	text.Draw(screen, transportHints, small, hintX, int(margin+lh), cfg.HUD.DimTextColor)

	if eng.StatusFrames > 0 && eng.Status != "" {
		statusY := float64(screen.Bounds().Dy()) - cfg.Timeline.Height - margin
		text.Draw(screen, eng.Status, font, int(margin), int(statusY), cfg.BrightYellow)
	}
}
