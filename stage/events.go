package stage

import "github.com/go-gl/mathgl/mgl64"

// TickEvent is published once per render tick by the time source.
type TickEvent struct {
	Time    float64 // playback seconds
	Delta   float64 // seconds since the previous tick
	Playing bool
}

// SeekEvent is published when the play head jumps rather than advances.
type SeekEvent struct {
	Time float64
	From float64
}

// ClipUpdateEvent carries one model's clip-local playback state in
// director mode. Starting and Ending mark the boundary ticks where the
// track entered or left the clip.
type ClipUpdateEvent struct {
	ModelID   string
	Clip      Clip
	LocalTime float64
	Playing   bool
	Starting  bool
	Ending    bool
}

// ProceduralKind discriminates the four procedural clip variants.
type ProceduralKind int

const (
	FadeIn ProceduralKind = iota
	FadeOut
	ScaleTo
	MoveBy
)

func (k ProceduralKind) String() string {
	switch k {
	case FadeIn:
		return "fadeIn"
	case FadeOut:
		return "fadeOut"
	case ScaleTo:
		return "scaleTo"
	case MoveBy:
		return "moveBy"
	default:
		return "unknown"
	}
}

// ProceduralUpdateEvent drives the procedural channel: a tagged record
// whose Kind selects which target fields are meaningful. Progress is the
// clip-normalized position in [0,1]; IsClipStart is true on the first tick
// a clip is covered and tells the channel to capture its baseline.
type ProceduralUpdateEvent struct {
	ClipID  string
	ModelID string
	Kind    ProceduralKind

	Progress    float64
	IsClipStart bool

	TargetVisible  bool
	TargetOpacity  float64    // FadeIn, FadeOut
	TargetScale    float64    // ScaleTo, uniform
	TargetPosition mgl64.Vec3 // MoveBy, relative displacement
}
