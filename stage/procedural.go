package stage

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Opacity write suppression thresholds. Near fully-transparent and
// fully-opaque the coarse epsilon would visibly snap, so it tightens.
const (
	proceduralEpsilon     = 0.01
	proceduralEdgeEpsilon = 0.001
)

type clipBaseline struct {
	scale    mgl64.Vec3
	position mgl64.Vec3

	scaleTween *gween.Tween
	moveTween  [3]*gween.Tween
}

type appliedState struct {
	hasOpacity  bool
	opacity     float64
	hasScale    bool
	scale       mgl64.Vec3
	hasPosition bool
	position    mgl64.Vec3
}

// ProceduralChannel applies continuous interpolated model state driven by
// procedural clips: opacity fades, uniform scale ramps and relative moves.
// Each clip's interpolation baseline is captured from the live model state
// the moment the clip starts, so consecutive clips chain from wherever the
// model actually is, including manual edits made mid-sequence.
//
// The channel never owns model storage. It writes through the injected
// ModelStore, skips writes that fall inside the suppression epsilon, and on
// Disable puts every touched model back the way it found it.
type ProceduralChannel struct {
	// Logger receives channel diagnostics. Defaults to a disabled logger.
	Logger zerolog.Logger

	models    ModelStore
	enabled   bool
	baselines map[string]*clipBaseline // by clip ID
	originals map[string]ModelState    // by model ID, first-touch snapshot
	applied   map[string]*appliedState // by model ID
}

// NewProceduralChannel builds a disabled channel over the given store.
// Call Enable before routing events to it.
func NewProceduralChannel(models ModelStore) *ProceduralChannel {
	c := &ProceduralChannel{
		Logger: zerolog.Nop(),
		models: models,
	}
	c.reset()
	return c
}

// Enable arms the channel and clears any tracking state left from a
// previous session.
func (c *ProceduralChannel) Enable() {
	c.reset()
	c.enabled = true
}

// Disable restores every touched model to the scale and position captured
// when the channel first wrote to it, resets opacity to 1 and visibility to
// true, and drops all per-clip and per-model tracking state.
func (c *ProceduralChannel) Disable() {
	for modelID, orig := range c.originals {
		st, ok := c.models.ModelState(modelID)
		if !ok {
			continue
		}
		st.Scale = orig.Scale
		st.Position = orig.Position
		st.Opacity = 1
		st.Visible = true
	}
	c.reset()
}

// Enabled reports whether the channel is currently armed.
func (c *ProceduralChannel) Enabled() bool {
	return c.enabled
}

// OnProceduralUpdate applies one procedural event. Fades write opacity
// only — visibility is deliberately left alone so a manual show/hide is
// never fought. ScaleTo interpolates a uniform factor from the clip-start
// scale's first axis; MoveBy displaces relative to the clip-start position.
func (c *ProceduralChannel) OnProceduralUpdate(ev ProceduralUpdateEvent) {
	if !c.enabled {
		return
	}
	st, ok := c.models.ModelState(ev.ModelID)
	if !ok {
		c.Logger.Debug().Str("model", ev.ModelID).Msg("procedural update for unknown model")
		return
	}
	c.touch(ev.ModelID, st)
	base := c.baseline(ev, st)

	switch ev.Kind {
	case FadeIn, FadeOut:
		c.writeOpacity(ev.ModelID, st, ev.TargetOpacity)
	case ScaleTo:
		v, _ := base.scaleTween.Set(float32(clamp01(ev.Progress)))
		f := float64(v)
		c.writeScale(ev.ModelID, st, mgl64.Vec3{f, f, f})
	case MoveBy:
		p := clamp01(ev.Progress)
		var pos mgl64.Vec3
		for i, tw := range base.moveTween {
			v, _ := tw.Set(float32(p))
			pos[i] = float64(v)
		}
		c.writePosition(ev.ModelID, st, pos)
	}
}

func (c *ProceduralChannel) reset() {
	c.enabled = false
	c.baselines = make(map[string]*clipBaseline)
	c.originals = make(map[string]ModelState)
	c.applied = make(map[string]*appliedState)
}

// touch snapshots a model's state the first time the channel sees it, so
// Disable can restore it later.
func (c *ProceduralChannel) touch(modelID string, st *ModelState) {
	if _, ok := c.originals[modelID]; !ok {
		c.originals[modelID] = *st
	}
}

// baseline returns the clip's interpolation baseline, capturing it from
// the live model state on the clip-start tick (or lazily, for consumers
// that subscribed mid-clip).
func (c *ProceduralChannel) baseline(ev ProceduralUpdateEvent, st *ModelState) *clipBaseline {
	b, ok := c.baselines[ev.ClipID]
	if ok && !ev.IsClipStart {
		return b
	}
	b = &clipBaseline{scale: st.Scale, position: st.Position}
	b.scaleTween = gween.New(float32(st.Scale.X()), float32(ev.TargetScale), 1, ease.Linear)
	for i := 0; i < 3; i++ {
		from := float32(st.Position[i])
		b.moveTween[i] = gween.New(from, from+float32(ev.TargetPosition[i]), 1, ease.Linear)
	}
	c.baselines[ev.ClipID] = b
	return b
}

func (c *ProceduralChannel) appliedFor(modelID string) *appliedState {
	a, ok := c.applied[modelID]
	if !ok {
		a = &appliedState{}
		c.applied[modelID] = a
	}
	return a
}

func (c *ProceduralChannel) writeOpacity(modelID string, st *ModelState, v float64) {
	a := c.appliedFor(modelID)
	if a.hasOpacity && math.Abs(v-a.opacity) < opacityEpsilon(v) {
		return
	}
	st.Opacity = v
	a.opacity = v
	a.hasOpacity = true
}

func (c *ProceduralChannel) writeScale(modelID string, st *ModelState, v mgl64.Vec3) {
	a := c.appliedFor(modelID)
	if a.hasScale && vecNear(v, a.scale, proceduralEpsilon) {
		return
	}
	st.Scale = v
	a.scale = v
	a.hasScale = true
}

func (c *ProceduralChannel) writePosition(modelID string, st *ModelState, v mgl64.Vec3) {
	a := c.appliedFor(modelID)
	if a.hasPosition && vecNear(v, a.position, proceduralEpsilon) {
		return
	}
	st.Position = v
	a.position = v
	a.hasPosition = true
}

func opacityEpsilon(v float64) float64 {
	if v <= proceduralEpsilon || v >= 1-proceduralEpsilon {
		return proceduralEdgeEpsilon
	}
	return proceduralEpsilon
}

func vecNear(a, b mgl64.Vec3, eps float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) >= eps {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
