package manifest

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatoba/efkstage/stage"
)

const demoDoc = `
name: demo
frame_rate: 60
loop_delay_sec: 1.5

models:
  - id: hero
    name: Hero
    anchor: hero_anchor
    bones:
      - {name: root, length: 0}
      - {name: arm, parent: root, x: 0, y: -12, angle: 10, length: 14}
    clips:
      - id: attack
        name: Attack
        start: 0
        end: 59
        poses:
          - {bone: arm, frame: 0, angle: 0}
          - {bone: arm, frame: 30, angle: 120}

effects:
  - id: slash
    name: Slash
    asset: slash
    bone: hero/arm
    position: [0, -4, 0]
    rotation: [0, 0, 90]
    speed: 2
    color: "#ff5533"
    triggers:
      - {id: t1, clip: attack, frame: 30, duration_sec: 0.8}

tracks:
  - model: hero
    entries:
      - {clip: attack, at: 0}
    procedural:
      - {id: fade1, kind: fade_in, start: 0, duration: 0.5, opacity: 1}
`

func TestParseFullDocument(t *testing.T) {
	m, err := Parse([]byte(demoDoc))
	require.NoError(t, err)

	assert.Equal(t, "demo", m.Name)
	assert.InDelta(t, 60, m.EffectiveFrameRate(stage.DefaultFrameRate), 1e-9)
	assert.InDelta(t, 1.5, m.EffectiveLoopDelay(2), 1e-9)

	md, ok := m.Model("hero")
	require.True(t, ok)
	arm, ok := md.Bone("arm")
	require.True(t, ok)
	assert.Equal(t, "root", arm.Parent)
	assert.InDelta(t, -12, arm.Y, 1e-9)

	clip, ok := md.Clip("attack")
	require.True(t, ok)
	assert.Equal(t, "Attack", clip.Name)
	require.Len(t, clip.Poses, 2)
	assert.InDelta(t, 120, clip.Poses[1].Angle, 1e-9)
}

func TestDefaultsFallBackWhenUnset(t *testing.T) {
	m, err := Parse([]byte("name: bare"))
	require.NoError(t, err)
	assert.InDelta(t, stage.DefaultFrameRate, m.EffectiveFrameRate(stage.DefaultFrameRate), 1e-9)
	assert.InDelta(t, 2, m.EffectiveLoopDelay(2), 1e-9)
}

func TestEffectConversion(t *testing.T) {
	m, err := Parse([]byte(demoDoc))
	require.NoError(t, err)

	defs := m.StageEffects()
	require.Len(t, defs, 1)
	def := defs[0]

	assert.Equal(t, "slash", def.ID)
	assert.Equal(t, stage.BoneRef("hero/arm"), def.Bone)
	assert.Equal(t, mgl64.Vec3{0, -4, 0}, def.Position)
	assert.Equal(t, mgl64.Vec3{0, 0, 90}, def.Rotation)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, def.Scale, "omitted scale decodes to unit")
	assert.InDelta(t, 2, def.Speed, 1e-9)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x55, B: 0x33, A: 0xff}, def.Color)
	assert.False(t, def.Loaded, "loaded is the backend's to flip")

	require.Len(t, def.Triggers, 1)
	tr := def.Triggers[0]
	assert.Equal(t, "attack", tr.ClipID)
	assert.Equal(t, 30, tr.Frame)
	assert.InDelta(t, 0.8, tr.Duration, 1e-9)
}

func TestEffectWithoutColorIsWhite(t *testing.T) {
	doc := `
models:
  - id: m
    clips: [{id: c, start: 0, end: 1}]
effects:
  - id: e
    triggers: [{id: t, clip: c, frame: 0}]
`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	def := m.StageEffects()[0]
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, def.Color)
	assert.InDelta(t, 1, def.Speed, 1e-9, "omitted speed decodes to 1")
}

func TestDirectorTrackConversion(t *testing.T) {
	m, err := Parse([]byte(demoDoc))
	require.NoError(t, err)

	tracks := m.DirectorTracks(60)
	require.Len(t, tracks, 1)
	tr := tracks[0]
	assert.Equal(t, "hero", tr.ModelID)

	require.Len(t, tr.Entries, 1)
	e := tr.Entries[0]
	assert.Equal(t, "attack", e.Clip.ID)
	assert.InDelta(t, 1.0, e.Duration, 1e-9, "60 frames at 60 fps")

	require.Len(t, tr.Procedural, 1)
	p := tr.Procedural[0]
	assert.Equal(t, "fade1", p.ClipID)
	assert.Equal(t, stage.FadeIn, p.Kind)
	assert.True(t, p.TargetVisible, "visible defaults to true")
	assert.InDelta(t, 1, p.TargetOpacity, 1e-9)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "negative trigger frame",
			doc: `
models:
  - id: m
    clips: [{id: c, start: 0, end: 10}]
effects:
  - id: e
    triggers: [{id: t, clip: c, frame: -1}]
`,
			want: ErrFrameNegative,
		},
		{
			name: "negative trigger duration",
			doc: `
models:
  - id: m
    clips: [{id: c, start: 0, end: 10}]
effects:
  - id: e
    triggers: [{id: t, clip: c, frame: 0, duration_sec: -1}]
`,
			want: ErrBadDuration,
		},
		{
			name: "trigger against unknown clip",
			doc: `
models:
  - id: m
    clips: [{id: c, start: 0, end: 10}]
effects:
  - id: e
    triggers: [{id: t, clip: ghost, frame: 0}]
`,
			want: ErrUnknownClip,
		},
		{
			name: "duplicate clip id across models",
			doc: `
models:
  - id: a
    clips: [{id: c, start: 0, end: 1}]
  - id: b
    clips: [{id: c, start: 0, end: 1}]
`,
			want: ErrDuplicateID,
		},
		{
			name: "duplicate effect id",
			doc: `
effects:
  - id: e
  - id: e
`,
			want: ErrDuplicateID,
		},
		{
			name: "inverted clip range",
			doc: `
models:
  - id: m
    clips: [{id: c, start: 10, end: 3}]
`,
			want: ErrBadRange,
		},
		{
			name: "bone ref without model part",
			doc: `
models:
  - id: m
    bones: [{name: root}]
effects:
  - id: e
    bone: root
`,
			want: ErrUnknownBone,
		},
		{
			name: "bone ref against unknown model",
			doc: `
effects:
  - id: e
    bone: ghost/root
`,
			want: ErrUnknownModel,
		},
		{
			name: "pose against unknown bone",
			doc: `
models:
  - id: m
    bones: [{name: root}]
    clips:
      - id: c
        start: 0
        end: 10
        poses: [{bone: ghost, frame: 0}]
`,
			want: ErrUnknownBone,
		},
		{
			name: "bone parent undeclared",
			doc: `
models:
  - id: m
    bones: [{name: arm, parent: ghost}]
`,
			want: ErrUnknownBone,
		},
		{
			name: "track against unknown model",
			doc: `
tracks:
  - model: ghost
`,
			want: ErrUnknownModel,
		},
		{
			name: "zero procedural duration",
			doc: `
models:
  - id: m
tracks:
  - model: m
    procedural: [{id: p, kind: fade_in, start: 0, duration: 0}]
`,
			want: ErrBadDuration,
		},
		{
			name: "procedural id colliding with clip id",
			doc: `
models:
  - id: m
    clips: [{id: c, start: 0, end: 1}]
tracks:
  - model: m
    procedural: [{id: c, kind: fade_in, start: 0, duration: 1}]
`,
			want: ErrDuplicateID,
		},
		{
			name: "model without id",
			doc: `
models:
  - name: Anonymous
`,
			want: ErrMissingID,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	doc := `
models:
  - id: m
tracks:
  - model: m
    procedural: [{id: p, kind: teleport, start: 0, duration: 1}]
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown procedural kind")
}

func TestParseRejectsMalformedColor(t *testing.T) {
	_, err := Parse([]byte("effects: [{id: e, color: \"#12345\"}]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color")
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoDoc), 0644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBoneRefRoundTrip(t *testing.T) {
	ref := BoneRef("hero", "arm")
	model, bone, ok := SplitBoneRef(ref)
	require.True(t, ok)
	assert.Equal(t, "hero", model)
	assert.Equal(t, "arm", bone)

	_, _, ok = SplitBoneRef("bare")
	assert.False(t, ok)
}
