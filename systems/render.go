package systems

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hatoba/efkstage/assets"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/fonts"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

var (
	effectOp = &ebiten.DrawImageOptions{}
	flashOp  = &ebiten.DrawRectShaderOptions{}
)

// Stage palette
var (
	backgroundColor   = color.RGBA{R: 18, G: 20, B: 26, A: 255}
	gridColor         = color.RGBA{R: 34, G: 38, B: 48, A: 255}
	floorLineColor    = color.RGBA{R: 70, G: 76, B: 92, A: 255}
	boneColor         = color.RGBA{R: 150, G: 170, B: 205, A: 255}
	boneSelectedColor = cfg.BrightYellow
	jointColor        = color.RGBA{R: 220, G: 228, B: 242, A: 255}
	anchorColor       = color.RGBA{R: 80, G: 88, B: 108, A: 255}
)

// viewTransform maps world coordinates through the camera (pan, zoom,
// shake) into screen space.
type viewTransform struct {
	camX, camY float64
	zoom       float64
	halfW      float64
	halfH      float64
}

func cameraView(e *ecs.ECS, screen *ebiten.Image) (viewTransform, bool) {
	cameraEntry, ok := components.Camera.First(e.World)
	if !ok {
		return viewTransform{}, false
	}
	camera := components.Camera.Get(cameraEntry)
	zoom := camera.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return viewTransform{
		camX:  camera.Position.X + camera.ShakeX,
		camY:  camera.Position.Y + camera.ShakeY,
		zoom:  zoom,
		halfW: float64(screen.Bounds().Dx()) / 2,
		halfH: float64(screen.Bounds().Dy()) / 2,
	}, true
}

func (v viewTransform) point(x, y float64) (float32, float32) {
	return float32((x-v.camX)*v.zoom + v.halfW), float32((y-v.camY)*v.zoom + v.halfH)
}

func (v viewTransform) apply(geom *ebiten.GeoM) {
	geom.Translate(-v.camX, -v.camY)
	geom.Scale(v.zoom, v.zoom)
	geom.Translate(v.halfW, v.halfH)
}

// DrawBackdrop clears the frame and draws the backdrop props, floor grid
// and floor line.
func DrawBackdrop(e *ecs.ECS, screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	view, ok := cameraView(e, screen)
	if !ok {
		return
	}
	backdropEntry, ok := components.Backdrop.First(e.World)
	if !ok {
		return
	}
	bd := components.Backdrop.Get(backdropEntry)
	if bd.Current == nil {
		return
	}
	st := bd.Current

	for _, p := range st.Props {
		x, y := view.point(p.X, p.Y)
		w := float32(p.Width * view.zoom)
		h := float32(p.Height * view.zoom)
		if p.Filled {
			vector.DrawFilledRect(screen, x, y, w, h, p.Color, false)
		} else {
			vector.StrokeRect(screen, x, y, w, h, 1, p.Color, false)
		}
	}

	spacing := st.GridSpacing
	if spacing <= 0 {
		spacing = cfg.Stage.GridSpacing
	}
	extent := cfg.Stage.GridExtent

	// Vertical grid lines across the working volume, then the floor line on
	// top of them.
	for gx := -extent; gx <= float64(st.Width)+extent; gx += spacing {
		x, y0 := view.point(gx, st.FloorY-320)
		_, y1 := view.point(gx, st.FloorY+70)
		vector.StrokeLine(screen, x, y0, x, y1, 1, gridColor, false)
	}

	fx0, fy := view.point(-extent, st.FloorY)
	fx1, _ := view.point(float64(st.Width)+extent, st.FloorY)
	vector.StrokeLine(screen, fx0, fy, fx1, fy, 2, floorLineColor, false)
}

// DrawModels renders every armature as stroked bone segments with joint
// dots, plus the anchor marker and name label. Procedural opacity fades the
// whole figure; procedural scale and position are already composed into the
// bone world transforms by the armature pass.
func DrawModels(e *ecs.ECS, screen *ebiten.Image) {
	view, ok := cameraView(e, screen)
	if !ok {
		return
	}

	selected := ""
	if playbackEntry, ok := components.Playback.First(e.World); ok {
		selected = components.Playback.Get(playbackEntry).SelectedModel
	}

	smallFont := fonts.SansSmall.Get()

	components.Model.Each(e.World, func(entry *donburi.Entry) {
		md := components.Model.Get(entry)
		ad := components.Armature.Get(entry)

		opacity := 1.0
		if md.State != nil {
			if !md.State.Visible {
				return
			}
			opacity = md.State.Opacity
		}
		if opacity <= 0 {
			return
		}

		lineColor := boneColor
		if md.ID == selected {
			lineColor = boneSelectedColor
		}
		segColor := fadeColor(lineColor, opacity)
		jc := fadeColor(jointColor, opacity)

		ax, ay := view.point(md.Anchor.X, md.Anchor.Y)
		arm := float32(6 * view.zoom)
		vector.StrokeLine(screen, ax-arm, ay, ax+arm, ay, 1, anchorColor, false)
		vector.StrokeLine(screen, ax, ay-arm, ax, ay+arm, 1, anchorColor, false)

		thick := cfg.Stage.BoneThickness * float32(view.zoom)
		for _, name := range ad.Order {
			b := ad.Bones[name]
			if b.Def.Length <= 0 {
				continue
			}
			x0, y0 := view.point(b.WorldBase.X(), b.WorldBase.Y())
			x1, y1 := view.point(b.WorldTip.X(), b.WorldTip.Y())
			vector.StrokeLine(screen, x0, y0, x1, y1, thick, segColor, false)
		}

		// Joints over the segments
		jr := cfg.Stage.JointRadius * float32(view.zoom)
		for _, name := range ad.Order {
			b := ad.Bones[name]
			x0, y0 := view.point(b.WorldBase.X(), b.WorldBase.Y())
			vector.DrawFilledCircle(screen, x0, y0, jr, jc, false)
		}

		label := md.Name
		if label == "" {
			label = md.ID
		}
		text.Draw(screen, label, smallFont, int(ax)-len(label)*3, int(ay)+18, fadeColor(cfg.HUD.DimTextColor, opacity))
	})
}

// DrawEffects renders live effect instances, center-anchored with their
// decomposed world transform. Additive assets composite with BlendLighter;
// fresh spawns flash white through the tint shader.
func DrawEffects(e *ecs.ECS, screen *ebiten.Image) {
	view, ok := cameraView(e, screen)
	if !ok {
		return
	}

	components.VFX.Each(e.World, func(entry *donburi.Entry) {
		vfx := components.VFX.Get(entry)
		if !vfx.Alive || vfx.Hidden || vfx.Anim == nil {
			return
		}
		frame := vfx.Anim.Frame()
		if frame < 0 || frame >= len(vfx.Frames) {
			return
		}
		img := vfx.Frames[frame]
		w, h := img.Bounds().Dx(), img.Bounds().Dy()

		if vfx.FlashFrames > 0 && assets.TintShader != nil {
			drawEffectFlashed(screen, img, vfx, view, w, h)
			return
		}

		effectOp.GeoM.Reset()
		effectOp.ColorScale.Reset()
		effectOp.GeoM.Translate(-float64(w)/2, -float64(h)/2)
		effectOp.GeoM.Scale(vfx.ScaleX, vfx.ScaleY)
		effectOp.GeoM.Rotate(vfx.RotationZ)
		effectOp.GeoM.Translate(vfx.X, vfx.Y)
		view.apply(&effectOp.GeoM)

		if vfx.Tint.A > 0 {
			effectOp.ColorScale.ScaleWithColor(vfx.Tint)
		}
		if vfx.Additive {
			effectOp.Blend = ebiten.BlendLighter
		} else {
			effectOp.Blend = ebiten.BlendSourceOver
		}
		screen.DrawImage(img, effectOp)
	})
}

func drawEffectFlashed(screen, img *ebiten.Image, vfx *components.VFXData, view viewTransform, w, h int) {
	flashOp.GeoM.Reset()
	flashOp.GeoM.Translate(-float64(w)/2, -float64(h)/2)
	flashOp.GeoM.Scale(vfx.ScaleX, vfx.ScaleY)
	flashOp.GeoM.Rotate(vfx.RotationZ)
	flashOp.GeoM.Translate(vfx.X, vfx.Y)
	view.apply(&flashOp.GeoM)

	flashOp.Images[0] = img
	flashOp.Uniforms = map[string]any{
		"TintColor":    []float32{1, 1, 1, 1},
		"TintStrength": float32(vfx.FlashFrames) / float32(spawnFlashFrames),
	}
	if vfx.Additive {
		flashOp.Blend = ebiten.BlendLighter
	} else {
		flashOp.Blend = ebiten.BlendSourceOver
	}
	screen.DrawRectShader(w, h, assets.TintShader, flashOp)
}

// fadeColor premultiplies a color by the model's current opacity.
func fadeColor(c color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1 {
		return c
	}
	if opacity < 0 {
		opacity = 0
	}
	return color.RGBA{
		R: uint8(float64(c.R) * opacity),
		G: uint8(float64(c.G) * opacity),
		B: uint8(float64(c.B) * opacity),
		A: uint8(float64(c.A) * opacity),
	}
}
