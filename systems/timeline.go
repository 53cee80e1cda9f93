package systems

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text" //nolint:staticcheck // TODO: migrate to text/v2
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/fonts"
	"github.com/hatoba/efkstage/stage"
	"github.com/hatoba/efkstage/tags"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"golang.org/x/image/font"
)

// UpdateTimeline handles the strip toggle, click-to-seek and scrubbing
// inside the strip, and anchor picking out in the viewport.
func UpdateTimeline(e *ecs.ECS) {
	tl := getOrCreateTimeline(e)
	if IsSettingsOpen(e) {
		return
	}

	input := getOrCreateInput(e)
	if GetAction(input, cfg.ActionToggleTimeline).JustPressed {
		tl.Visible = !tl.Visible
	}

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

	mx, my := ebiten.CursorPosition()
	stripTop := float64(cfg.C.Height) - cfg.Timeline.Height
	inStrip := tl.Visible && float64(my) >= stripTop

	if inStrip {
		_, wy := ebiten.Wheel()
		if wy != 0 {
			tl.ScrollX -= wy * 40
			if tl.ScrollX < 0 {
				tl.ScrollX = 0
			}
		}
	}

	leftJust := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	leftHeld := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if !leftHeld {
		tl.Scrubbing = false
	}

	switch {
	case leftJust && inStrip:
		tl.Scrubbing = true
		seekToCursor(pb, tl, mx)
	case tl.Scrubbing && leftHeld:
		seekToCursor(pb, tl, mx)
	case leftJust && !inStrip:
		pickAnchor(e, pb, mx, my)
	}

	updateHover(tl, eng, inStrip, mx, my, stripTop)

	// Keep the playhead in view while playing.
	if tl.Visible && pb.Playing && !tl.Scrubbing {
		px := timeToX(pb.Time, tl)
		if px < cfg.Timeline.LabelWidth || px > float64(cfg.C.Width)-20 {
			usable := float64(cfg.C.Width) - cfg.Timeline.LabelWidth
			tl.ScrollX = pb.Time*cfg.Timeline.PixelsPerSecond - usable/2
			if tl.ScrollX < 0 {
				tl.ScrollX = 0
			}
		}
	}
}

func seekToCursor(pb *components.PlaybackData, tl *components.TimelineData, mx int) {
	t := xToTime(mx, tl)
	if t < 0 {
		t = 0
	}
	requestSeek(pb, t)
}

// pickAnchor selects the model whose anchor box sits under the clicked
// world point.
func pickAnchor(e *ecs.ECS, pb *components.PlaybackData, mx, my int) {
	cameraEntry, ok := components.Camera.First(e.World)
	if !ok {
		return
	}
	camera := components.Camera.Get(cameraEntry)
	zoom := camera.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	wx := (float64(mx)-float64(cfg.C.Width)/2)/zoom + camera.Position.X
	wy := (float64(my)-float64(cfg.C.Height)/2)/zoom + camera.Position.Y

	spaceEntry, ok := components.Space.First(e.World)
	if !ok {
		return
	}
	hit := anchorAt(components.Space.Get(spaceEntry), wx, wy)
	if hit == nil {
		return
	}

	components.Model.Each(e.World, func(entry *donburi.Entry) {
		if !entry.HasComponent(components.Object) || components.Object.Get(entry).Object != hit {
			return
		}
		md := components.Model.Get(entry)
		if pb.SelectedModel != md.ID {
			pb.SelectedModel = md.ID
			PlaySFX(e, cfg.SoundMenuNavigate)
		}
	})
}

// anchorAt returns the anchor object under a world point. A throwaway
// one-pixel object dropped into the space does the cell query; cells are
// coarser than the anchor boxes, so candidates still need a containment
// check.
func anchorAt(space *resolv.Space, wx, wy float64) *resolv.Object {
	point := resolv.NewObject(wx, wy, 1, 1)
	space.Add(point)
	defer space.Remove(point)

	check := point.Check(0, 0, tags.ResolvAnchor)
	if check == nil {
		return nil
	}
	for _, obj := range check.Objects {
		if wx >= obj.X && wx <= obj.X+obj.W && wy >= obj.Y && wy <= obj.Y+obj.H {
			return obj
		}
	}
	return nil
}

func updateHover(tl *components.TimelineData, eng *components.EngineData, inStrip bool, mx, my int, stripTop float64) {
	tl.HoverModelID, tl.HoverClipID = "", ""
	if !inStrip || float64(mx) < cfg.Timeline.LabelWidth {
		return
	}

	laneTop := stripTop + cfg.Timeline.RulerHeight + cfg.Timeline.LaneGap
	tracks := eng.Director.Tracks()
	for i := range tracks {
		if float64(my) >= laneTop && float64(my) < laneTop+cfg.Timeline.LaneHeight {
			tl.HoverModelID = tracks[i].ModelID
			t := xToTime(mx, tl)
			for j := range tracks[i].Entries {
				en := &tracks[i].Entries[j]
				if t >= en.At && t < en.At+en.Duration {
					tl.HoverClipID = en.Clip.ID
				}
			}
			return
		}
		laneTop += cfg.Timeline.LaneHeight + cfg.Timeline.LaneGap
	}
}

func xToTime(mx int, tl *components.TimelineData) float64 {
	return (float64(mx) - cfg.Timeline.LabelWidth + tl.ScrollX) / cfg.Timeline.PixelsPerSecond
}

func timeToX(t float64, tl *components.TimelineData) float64 {
	return cfg.Timeline.LabelWidth + t*cfg.Timeline.PixelsPerSecond - tl.ScrollX
}

// DrawTimeline renders the bottom strip: a seconds ruler, one lane per
// track with its clip entries, trigger ticks and procedural spans, and the
// playhead over everything.
func DrawTimeline(e *ecs.ECS, screen *ebiten.Image) {
	tlEntry, ok := components.Timeline.First(e.World)
	if !ok {
		return
	}
	tl := components.Timeline.Get(tlEntry)
	if !tl.Visible {
		return
	}
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)
	playbackEntry, ok := components.Playback.First(e.World)
	if !ok {
		return
	}
	pb := components.Playback.Get(playbackEntry)

	w := float64(screen.Bounds().Dx())
	h := float64(screen.Bounds().Dy())
	top := h - cfg.Timeline.Height
	small := fonts.SansSmall.Get()

	vector.DrawFilledRect(screen, 0, float32(top), float32(w), float32(cfg.Timeline.Height),
		cfg.Timeline.BackgroundColor, false)

	// Ruler: one tick per second up to the schedule end.
	for s := 0.0; s <= pb.Duration+0.5; s++ {
		x := timeToX(s, tl)
		if x < cfg.Timeline.LabelWidth || x > w {
			continue
		}
		vector.StrokeLine(screen, float32(x), float32(top), float32(x), float32(top+cfg.Timeline.RulerHeight),
			1, cfg.Timeline.RulerColor, false)
		text.Draw(screen, fmt.Sprintf("%gs", s), small, int(x)+3, int(top+cfg.Timeline.RulerHeight)-3,
			cfg.Timeline.RulerColor)
	}

	fps := cfg.Playback.FrameRate
	if eng.Manifest != nil {
		fps = eng.Manifest.EffectiveFrameRate(cfg.Playback.FrameRate)
	}

	laneY := top + cfg.Timeline.RulerHeight + cfg.Timeline.LaneGap
	tracks := eng.Director.Tracks()
	for i := range tracks {
		drawLane(screen, tl, pb, eng, &tracks[i], laneY, w, fps, small)
		laneY += cfg.Timeline.LaneHeight + cfg.Timeline.LaneGap
	}

	px := timeToX(pb.Time, tl)
	if px >= cfg.Timeline.LabelWidth && px <= w {
		vector.StrokeLine(screen, float32(px), float32(top), float32(px), float32(h),
			2, cfg.Timeline.PlayheadColor, false)
	}

	if tl.HoverModelID != "" {
		label := tl.HoverModelID
		if tl.HoverClipID != "" {
			label = fmt.Sprintf("%s / %s", tl.HoverModelID, tl.HoverClipID)
		}
		bounds := text.BoundString(small, label) //nolint:staticcheck // TODO: migrate to text/v2
		text.Draw(screen, label, small, int(w)-bounds.Dx()-6, int(h)-5, cfg.HUD.TextColor)
	}
}

func drawLane(screen *ebiten.Image, tl *components.TimelineData, pb *components.PlaybackData,
	eng *components.EngineData, tr *stage.Track, laneY, w, fps float64, small font.Face) {

	vector.DrawFilledRect(screen, float32(cfg.Timeline.LabelWidth), float32(laneY),
		float32(w-cfg.Timeline.LabelWidth), float32(cfg.Timeline.LaneHeight),
		cfg.Timeline.LaneColor, false)
	text.Draw(screen, tr.ModelID, small, 4, int(laneY+cfg.Timeline.LaneHeight)-6, cfg.HUD.DimTextColor)

	for i := range tr.Entries {
		en := &tr.Entries[i]
		clr := cfg.Timeline.EntryColor
		if pb.Time >= en.At && pb.Time < en.At+en.Duration {
			clr = cfg.Timeline.EntryActive
		}
		x0, x1, visible := spanToScreen(en.At, en.At+en.Duration, tl, w)
		if visible {
			vector.DrawFilledRect(screen, x0, float32(laneY+2), x1-x0, float32(cfg.Timeline.LaneHeight-8), clr, false)
			if x1-x0 > 34 {
				text.Draw(screen, en.Clip.Name, small, int(x0)+3, int(laneY+cfg.Timeline.LaneHeight)-8, cfg.HUD.TextColor)
			}
		}

		// Trigger ticks at their quantized fire times inside the entry.
		for j := range eng.Effects {
			def := &eng.Effects[j]
			for k := range def.Triggers {
				trg := &def.Triggers[k]
				if trg.ClipID != en.Clip.ID {
					continue
				}
				at := en.At + float64(trg.Frame)/fps
				if at > en.At+en.Duration {
					continue
				}
				tx := timeToX(at, tl)
				if tx < cfg.Timeline.LabelWidth || tx > w {
					continue
				}
				vector.StrokeLine(screen, float32(tx), float32(laneY+1), float32(tx),
					float32(laneY+cfg.Timeline.LaneHeight-7), 2, cfg.Timeline.TriggerColor, false)
			}
		}
	}

	// Procedural spans ride the bottom edge of the lane.
	for i := range tr.Procedural {
		p := &tr.Procedural[i]
		x0, x1, visible := spanToScreen(p.Start, p.Start+p.Duration, tl, w)
		if !visible {
			continue
		}
		vector.DrawFilledRect(screen, x0, float32(laneY+cfg.Timeline.LaneHeight-5), x1-x0, 4,
			cfg.Timeline.ProceduralColor, false)
		if x1-x0 > 44 {
			text.Draw(screen, p.Kind.String(), small, int(x0)+2, int(laneY+cfg.Timeline.LaneHeight)-1,
				cfg.Timeline.ProceduralColor)
		}
	}
}

// spanToScreen clamps a timeline span to the visible lane area.
func spanToScreen(t0, t1 float64, tl *components.TimelineData, w float64) (float32, float32, bool) {
	x0 := timeToX(t0, tl)
	x1 := timeToX(t1, tl)
	if x1 < cfg.Timeline.LabelWidth || x0 > w {
		return 0, 0, false
	}
	if x0 < cfg.Timeline.LabelWidth {
		x0 = cfg.Timeline.LabelWidth
	}
	if x1 > w {
		x1 = w
	}
	return float32(x0), float32(x1), true
}

// getOrCreateTimeline returns the singleton Timeline component, creating it
// visible by default.
func getOrCreateTimeline(e *ecs.ECS) *components.TimelineData {
	entry, ok := components.Timeline.First(e.World)
	if !ok {
		entry = e.World.Entry(e.World.Create(components.Timeline))
		components.Timeline.SetValue(entry, components.TimelineData{Visible: true})
	}
	return components.Timeline.Get(entry)
}
