package assets

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hatoba/efkstage/config"
)

// SpriteLoader builds and caches effect sprite sheets. The preview ships no
// image files; every sheet is synthesized once from its asset definition
// and then served from cache, with per-frame sub-images cached the same way
// a PNG-backed sheet would be.
type SpriteLoader struct {
	cache      map[string]*ebiten.Image
	frameCache map[string][]*ebiten.Image
}

func NewSpriteLoader() *SpriteLoader {
	return &SpriteLoader{
		cache:      make(map[string]*ebiten.Image),
		frameCache: make(map[string][]*ebiten.Image),
	}
}

var spriteLoader = NewSpriteLoader()

// HasAsset reports whether an asset key has a sheet definition.
func HasAsset(asset string) bool {
	_, ok := config.EffectAssets[asset]
	return ok
}

// MustSheet returns the full sprite sheet for an asset, generating it on
// first use.
func (l *SpriteLoader) MustSheet(asset string) *ebiten.Image {
	if img, ok := l.cache[asset]; ok {
		return img
	}

	def, ok := config.EffectAssets[asset]
	if !ok {
		panic(fmt.Sprintf("No sheet definition for effect asset %q", asset))
	}

	sheet := renderSheet(asset, def)
	l.cache[asset] = sheet
	return sheet
}

// Frames returns the cached per-frame sub-images for an asset, in order.
func (l *SpriteLoader) Frames(asset string) []*ebiten.Image {
	if frames, ok := l.frameCache[asset]; ok {
		return frames
	}

	def := config.EffectAssets[asset]
	sheet := l.MustSheet(asset)

	frames := make([]*ebiten.Image, def.FrameCount)
	for i := 0; i < def.FrameCount; i++ {
		sx := i * def.FrameWidth
		rect := image.Rect(sx, 0, sx+def.FrameWidth, def.FrameHeight)
		frames[i] = sheet.SubImage(rect).(*ebiten.Image)
	}
	l.frameCache[asset] = frames
	return frames
}

func EffectFrames(asset string) []*ebiten.Image {
	return spriteLoader.Frames(asset)
}

// PreloadAllEffectSheets renders every defined sheet up front so the first
// trigger fire never pays the synthesis cost.
func PreloadAllEffectSheets() {
	for asset := range config.EffectAssets {
		_ = spriteLoader.Frames(asset)
	}
}

func renderSheet(asset string, def config.EffectAssetDef) *ebiten.Image {
	sheet := ebiten.NewImage(def.FrameWidth*def.FrameCount, def.FrameHeight)

	for i := 0; i < def.FrameCount; i++ {
		p := float64(i) / float64(def.FrameCount-1)
		ox := float32(i * def.FrameWidth)
		cx := ox + float32(def.FrameWidth)/2
		cy := float32(def.FrameHeight) / 2

		switch def.Shape {
		case config.ShapeSpark:
			drawSparkFrame(sheet, cx, cy, float32(def.FrameWidth), p)
		case config.ShapeRing:
			drawRingFrame(sheet, cx, cy, float32(def.FrameWidth), p)
		case config.ShapeFlame:
			drawFlameFrame(sheet, cx, float32(def.FrameHeight), float32(def.FrameWidth), i)
		case config.ShapeSmoke:
			drawSmokeFrame(sheet, cx, float32(def.FrameHeight), p, i)
		case config.ShapeBurst:
			drawBurstFrame(sheet, cx, cy, float32(def.FrameWidth), p)
		case config.ShapeAura:
			drawAuraFrame(sheet, cx, cy, float32(def.FrameWidth), float64(i)/float64(def.FrameCount))
		}
	}

	return sheet
}

// Frames are drawn in white so the manifest color can tint them at draw
// time through the color scale.
func white(alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	a := uint8(alpha * 255)
	// Premultiplied: channel values track alpha.
	return color.RGBA{R: a, G: a, B: a, A: a}
}

func drawSparkFrame(dst *ebiten.Image, cx, cy, w float32, p float64) {
	fade := 1 - p
	reach := float32(p) * w * 0.46

	const rays = 7
	for r := 0; r < rays; r++ {
		ang := float64(r) / rays * 2 * math.Pi
		x := cx + reach*float32(math.Cos(ang))
		y := cy + reach*float32(math.Sin(ang))
		vector.StrokeLine(dst, cx, cy, x, y, 2, white(fade), true)
	}
	core := (1 - float32(p)) * w * 0.16
	if core > 0.5 {
		vector.DrawFilledCircle(dst, cx, cy, core, white(fade), true)
	}
}

func drawRingFrame(dst *ebiten.Image, cx, cy, w float32, p float64) {
	radius := float32(0.08+0.40*p) * w
	stroke := float32(1 + 4*(1-p))
	vector.StrokeCircle(dst, cx, cy, radius, stroke, white(1-p*p), true)
}

func drawFlameFrame(dst *ebiten.Image, cx, h, w float32, i int) {
	// Stacked circles shrinking toward the tip, with a deterministic
	// flicker so the loop does not strobe.
	flicker := float32(0.85 + 0.15*math.Sin(float64(i)*2.399))
	base := h * 0.82
	for s := 0; s < 5; s++ {
		t := float32(s) / 4
		y := base - t*h*0.62*flicker
		r := (1 - t*0.8) * w * 0.26 * flicker
		wobble := float32(math.Sin(float64(i)*1.7+float64(s))) * w * 0.05
		vector.DrawFilledCircle(dst, cx+wobble, y, r, white(float64(0.9-0.15*t)), true)
	}
}

func drawSmokeFrame(dst *ebiten.Image, cx, h float32, p float64, i int) {
	rise := float32(p) * h * 0.5
	r := float32(0.12+0.3*p) * h
	drift := float32(math.Sin(float64(i)*0.9)) * h * 0.06
	vector.DrawFilledCircle(dst, cx+drift, h*0.72-rise, r, white(0.55*(1-p)), true)
	vector.DrawFilledCircle(dst, cx-drift*0.6, h*0.8-rise*0.7, r*0.7, white(0.4*(1-p)), true)
}

func drawBurstFrame(dst *ebiten.Image, cx, cy, w float32, p float64) {
	// Expand fast, then hollow out.
	outer := float32(math.Sqrt(p)) * w * 0.48
	vector.DrawFilledCircle(dst, cx, cy, outer, white(0.85*(1-p)), true)
	if p > 0.25 {
		inner := float32((p-0.25)/0.75) * outer
		vector.StrokeCircle(dst, cx, cy, inner, 3, white(1-p), true)
	}
}

func drawAuraFrame(dst *ebiten.Image, cx, cy, w float32, phase float64) {
	// phase runs a full cycle across the sheet so the loop is seamless.
	pulse := 0.5 + 0.5*math.Sin(phase*2*math.Pi)
	r := float32(0.28+0.12*pulse) * w
	vector.StrokeCircle(dst, cx, cy, r, 3, white(0.35+0.45*pulse), true)
	vector.DrawFilledCircle(dst, cx, cy, r*0.65, white(0.18+0.2*pulse), true)
}
