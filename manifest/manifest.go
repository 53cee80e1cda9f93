// Package manifest loads and validates stage manifests: the YAML documents
// that describe a preview stage's models, armatures, clips, effects and
// director tracks. The schema here is preview input for the host; engine
// types are produced through the conversion helpers so the stage package
// never sees YAML.
package manifest

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/hatoba/efkstage/stage"
)

// Manifest is one stage document. FrameRate and LoopDelaySec override the
// host defaults when positive; zero means "use the configured default".
type Manifest struct {
	Name         string     `yaml:"name"`
	FrameRate    float64    `yaml:"frame_rate"`
	LoopDelaySec float64    `yaml:"loop_delay_sec"`
	Models       []Model    `yaml:"models"`
	Effects      []Effect   `yaml:"effects"`
	Tracks       []TrackDef `yaml:"tracks"`
}

// Model describes one armature-driven stage model. Anchor names the TMX
// object the model is placed at; bones form a parent-linked 2D skeleton.
type Model struct {
	ID     string    `yaml:"id"`
	Name   string    `yaml:"name"`
	Anchor string    `yaml:"anchor"`
	Bones  []Bone    `yaml:"bones"`
	Clips  []ClipDef `yaml:"clips"`
}

// Bone is one joint in a model's skeleton. X/Y is the rest offset from the
// parent joint, Angle the rest rotation in degrees, Length the drawn
// segment length. An empty Parent marks the root.
type Bone struct {
	Name   string  `yaml:"name"`
	Parent string  `yaml:"parent"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Angle  float64 `yaml:"angle"`
	Length float64 `yaml:"length"`
}

// ClipDef is one animation clip on a model: a stable ID, a display name
// that may be renamed freely, an inclusive frame range and the bone pose
// keys the armature interpolates between.
type ClipDef struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Start int       `yaml:"start"`
	End   int       `yaml:"end"`
	Poses []PoseKey `yaml:"poses"`
}

// PoseKey is one bone rotation keyframe inside a clip.
type PoseKey struct {
	Bone  string  `yaml:"bone"`
	Frame int     `yaml:"frame"`
	Angle float64 `yaml:"angle"` // degrees
}

// Effect configures one spawnable effect class. Bone, when set, is a
// "<model>/<bone>" reference; empty means world-space. A zero Scale decodes
// to unit scale and a zero Speed to 1 during conversion.
type Effect struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Asset    string       `yaml:"asset"`
	Bone     string       `yaml:"bone"`
	Position Vec3         `yaml:"position"`
	Rotation Vec3         `yaml:"rotation"` // degrees
	Scale    Vec3         `yaml:"scale"`
	Speed    float64      `yaml:"speed"`
	Color    Color        `yaml:"color"`
	Triggers []TriggerDef `yaml:"triggers"`
}

// TriggerDef schedules one spawn of its effect at a clip-local frame.
// DurationSec zero lets the instance play to natural completion.
type TriggerDef struct {
	ID          string  `yaml:"id"`
	Clip        string  `yaml:"clip"`
	Frame       int     `yaml:"frame"`
	DurationSec float64 `yaml:"duration_sec"`
}

// TrackDef is one model's schedule in director mode.
type TrackDef struct {
	Model      string          `yaml:"model"`
	Entries    []TrackEntryDef `yaml:"entries"`
	Procedural []ProceduralDef `yaml:"procedural"`
}

// TrackEntryDef schedules a clip at a director-timeline second. Duration
// zero means the clip's natural length at the stage frame rate.
type TrackEntryDef struct {
	Clip     string  `yaml:"clip"`
	At       float64 `yaml:"at"`
	Duration float64 `yaml:"duration"`
}

// ProceduralDef is one procedural clip on a track. Visible defaults to
// true when omitted.
type ProceduralDef struct {
	ID       string  `yaml:"id"`
	Kind     Kind    `yaml:"kind"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
	Visible  *bool   `yaml:"visible"`
	Opacity  float64 `yaml:"opacity"`
	Scale    float64 `yaml:"scale"`
	Move     Vec3    `yaml:"move"`
}

// Vec3 decodes a YAML flow sequence like [1, 0, 2.5].
type Vec3 [3]float64

// Vec returns the mathgl form.
func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func (v Vec3) isZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Kind decodes a procedural kind from its snake_case YAML form.
type Kind stage.ProceduralKind

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("procedural kind must be a string")
	}
	switch value.Value {
	case "fade_in":
		*k = Kind(stage.FadeIn)
	case "fade_out":
		*k = Kind(stage.FadeOut)
	case "scale_to":
		*k = Kind(stage.ScaleTo)
	case "move_by":
		*k = Kind(stage.MoveBy)
	default:
		return fmt.Errorf("unknown procedural kind %q (want fade_in, fade_out, scale_to or move_by)", value.Value)
	}
	return nil
}

// Color decodes a "#RRGGBB" or "#RRGGBBAA" hex string.
type Color struct {
	color.RGBA
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color %q", value.Value)
	}
	channel := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}
	var err error
	if c.R, err = channel(0); err != nil {
		return fmt.Errorf("invalid color %q: %w", value.Value, err)
	}
	if c.G, err = channel(2); err != nil {
		return fmt.Errorf("invalid color %q: %w", value.Value, err)
	}
	if c.B, err = channel(4); err != nil {
		return fmt.Errorf("invalid color %q: %w", value.Value, err)
	}
	c.A = 255
	if len(s) == 8 {
		if c.A, err = channel(6); err != nil {
			return fmt.Errorf("invalid color %q: %w", value.Value, err)
		}
	}
	return nil
}

// Load reads, parses and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return m, nil
}

// Parse unmarshals and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// EffectiveFrameRate returns the manifest frame rate, or fallback when the
// manifest does not set one.
func (m *Manifest) EffectiveFrameRate(fallback float64) float64 {
	if m.FrameRate > 0 {
		return m.FrameRate
	}
	return fallback
}

// EffectiveLoopDelay returns the loop-replay delay in seconds, or fallback
// when the manifest does not set one.
func (m *Manifest) EffectiveLoopDelay(fallback float64) float64 {
	if m.LoopDelaySec > 0 {
		return m.LoopDelaySec
	}
	return fallback
}

// Model returns the model with the given ID.
func (m *Manifest) Model(id string) (*Model, bool) {
	for i := range m.Models {
		if m.Models[i].ID == id {
			return &m.Models[i], true
		}
	}
	return nil, false
}

// Clip returns the clip with the given ID.
func (md *Model) Clip(id string) (*ClipDef, bool) {
	for i := range md.Clips {
		if md.Clips[i].ID == id {
			return &md.Clips[i], true
		}
	}
	return nil, false
}

// Bone returns the bone with the given name.
func (md *Model) Bone(name string) (*Bone, bool) {
	for i := range md.Bones {
		if md.Bones[i].Name == name {
			return &md.Bones[i], true
		}
	}
	return nil, false
}

// Stage converts a clip definition to its engine form.
func (c *ClipDef) Stage() stage.Clip {
	return stage.Clip{ID: c.ID, Name: c.Name, Start: c.Start, End: c.End}
}

// BoneRef joins a model ID and bone name into the engine bone reference
// used by effect bindings and the host's bone query.
func BoneRef(modelID, bone string) stage.BoneRef {
	return stage.BoneRef(modelID + "/" + bone)
}

// SplitBoneRef is the inverse of BoneRef. ok is false when ref does not
// carry a model part.
func SplitBoneRef(ref stage.BoneRef) (modelID, bone string, ok bool) {
	s := string(ref)
	i := strings.IndexByte(s, '/')
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+1:], true
}

// StageEffects converts every effect definition to its engine form. Zero
// scale becomes unit scale and zero speed becomes 1. Loaded starts false;
// the effect backend flips it once the asset is registered.
func (m *Manifest) StageEffects() []stage.EffectDefinition {
	out := make([]stage.EffectDefinition, 0, len(m.Effects))
	for i := range m.Effects {
		out = append(out, m.Effects[i].Stage())
	}
	return out
}

// Stage converts one effect definition to its engine form.
func (e *Effect) Stage() stage.EffectDefinition {
	scale := e.Scale.Vec()
	if e.Scale.isZero() {
		scale = mgl64.Vec3{1, 1, 1}
	}
	speed := e.Speed
	if speed == 0 {
		speed = 1
	}
	def := stage.EffectDefinition{
		ID:       e.ID,
		Name:     e.Name,
		Asset:    e.Asset,
		Position: e.Position.Vec(),
		Rotation: e.Rotation.Vec(),
		Scale:    scale,
		Speed:    speed,
		Bone:     stage.BoneRef(e.Bone),
		Color:    e.Color.RGBA,
		Triggers: make([]stage.Trigger, 0, len(e.Triggers)),
	}
	if def.Color.A == 0 {
		def.Color = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	for _, t := range e.Triggers {
		def.Triggers = append(def.Triggers, stage.Trigger{
			ID:       t.ID,
			ClipID:   t.Clip,
			Frame:    t.Frame,
			Duration: t.DurationSec,
		})
	}
	return def
}

// DirectorTracks converts the track table to its engine form at the given
// frame rate. Entries without an explicit duration get the clip's natural
// length.
func (m *Manifest) DirectorTracks(fps float64) []stage.Track {
	out := make([]stage.Track, 0, len(m.Tracks))
	for _, td := range m.Tracks {
		track := stage.Track{ModelID: td.Model}
		model, _ := m.Model(td.Model)
		for _, e := range td.Entries {
			entry := stage.TrackEntry{At: e.At, Duration: e.Duration}
			if model != nil {
				if c, ok := model.Clip(e.Clip); ok {
					entry.Clip = c.Stage()
					if entry.Duration <= 0 {
						entry.Duration = entry.Clip.Duration(fps)
					}
				}
			}
			track.Entries = append(track.Entries, entry)
		}
		for _, p := range td.Procedural {
			visible := true
			if p.Visible != nil {
				visible = *p.Visible
			}
			track.Procedural = append(track.Procedural, stage.ProceduralEntry{
				ClipID:         p.ID,
				Kind:           stage.ProceduralKind(p.Kind),
				Start:          p.Start,
				Duration:       p.Duration,
				TargetVisible:  visible,
				TargetOpacity:  p.Opacity,
				TargetScale:    p.Scale,
				TargetPosition: p.Move.Vec(),
			})
		}
		out = append(out, track)
	}
	return out
}
