package config

import "image/color"

// PlaybackConfig contains transport and timing configuration values
type PlaybackConfig struct {
	// Timing
	FrameRate      float64 // trigger quantization rate (frames per second)
	TickRate       float64 // host update rate (ebiten TPS)
	ReplayDelaySec float64 // pause between loop iterations

	// Speed control
	SpeedSteps   []float64 // selectable playback rates
	DefaultSpeed int       // index into SpeedSteps

	// Stepping
	LoopByDefault bool
}

// StageConfig contains world-to-screen mapping for the preview viewport
type StageConfig struct {
	// World units map to pixels 1:1 on the X/Y plane; Z is ignored by the
	// renderer and only carried through transforms.
	FloorY        float64 // world-space Y of the studio floor line
	GridSpacing   float64 // pixels between floor grid lines
	GridExtent    float64 // half-width of the drawn grid
	ModelSpacing  float64 // default gap between auto-placed model anchors
	BoneThickness float32 // stroke width for armature segments
	JointRadius   float32 // radius of the joint circles
	AnchorSize    float64 // picking box edge for model anchors
}

// CameraConfig contains camera behavior configuration
type CameraConfig struct {
	PanSpeed        float64 // pixels per tick at zoom 1
	FollowSmoothing float64 // how fast the camera eases onto the target (0.0-1.0)
	ZoomStep        float64 // multiplicative zoom per key press
	MinZoom         float64
	MaxZoom         float64
}

// ScreenShakeConfig contains screen shake effect configuration
type ScreenShakeConfig struct {
	SpawnIntensity float64 // pixels - world-space effect spawn
	SpawnDuration  int     // frames
	MaxIntensity   float64 // clamp when shakes stack
}

// HUDConfig contains HUD layout configuration values
type HUDConfig struct {
	Margin         float64
	LineHeight     float64
	ClipBarWidth   float64
	ClipBarHeight  float64
	ClipBarGap     float64
	TextColor      color.RGBA
	DimTextColor   color.RGBA
	BarBgColor     color.RGBA
	BarFgColor     color.RGBA
	StatusDuration int // frames a transient status line stays visible
}

// TimelineConfig contains timeline strip layout configuration
type TimelineConfig struct {
	Height          float64 // total strip height in pixels
	LaneHeight      float64
	LaneGap         float64
	RulerHeight     float64
	PixelsPerSecond float64
	LabelWidth      float64 // left gutter for model names

	BackgroundColor color.RGBA
	LaneColor       color.RGBA
	EntryColor      color.RGBA
	EntryActive     color.RGBA
	ProceduralColor color.RGBA
	TriggerColor    color.RGBA
	PlayheadColor   color.RGBA
	RulerColor      color.RGBA
}

// MenuConfig contains main menu configuration values
type MenuConfig struct {
	BackgroundColor   color.RGBA
	TitleColor        color.RGBA
	TextColorNormal   color.RGBA
	TextColorSelected color.RGBA
	TitleY            float64
	MenuStartY        float64
	MenuItemHeight    float64
	MenuItemGap       float64
}

// DebugConfig contains debug/testing command-line options
type DebugConfig struct {
	Overlay    bool   // draw picking shapes and engine counters
	SkipMenu   bool   // go straight to the stage scene
	Manifest   string // manifest path override from the command line
	Mute       bool
	ShowCursor bool
}

// Config holds general window configuration
type Config struct {
	Width  int
	Height int
	Title  string
}

// Global configuration instances
var C *Config
var Playback PlaybackConfig
var Stage StageConfig
var Camera CameraConfig
var ScreenShake ScreenShakeConfig
var HUD HUDConfig
var Timeline TimelineConfig
var Menu MenuConfig
var Debug DebugConfig

// Shared RGBA color constants
var (
	White        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow       = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	BrightYellow = color.RGBA{R: 255, G: 255, B: 100, A: 255}
	Orange       = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Red          = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green        = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LightGreen   = color.RGBA{R: 100, G: 255, B: 100, A: 255}
	Magenta      = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	BlackOverlay = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	LightBlue    = color.RGBA{R: 100, G: 180, B: 255, A: 255} // Selected menu items
	DarkBlue     = color.RGBA{R: 60, G: 100, B: 160, A: 255}  // Unselected menu items
)

func init() {
	C = &Config{
		Width:  960,
		Height: 540,
		Title:  "efkstage",
	}

	Playback = PlaybackConfig{
		FrameRate:      30.0,
		TickRate:       60.0,
		ReplayDelaySec: 2.0,
		SpeedSteps:     []float64{0.1, 0.25, 0.5, 1.0, 2.0, 4.0},
		DefaultSpeed:   3, // 1.0x
		LoopByDefault:  true,
	}

	Stage = StageConfig{
		FloorY:        420,
		GridSpacing:   48,
		GridExtent:    1440,
		ModelSpacing:  280,
		BoneThickness: 5,
		JointRadius:   4,
		AnchorSize:    36,
	}

	Camera = CameraConfig{
		PanSpeed:        6.0,
		FollowSmoothing: 0.08,
		ZoomStep:        1.1,
		MinZoom:         0.4,
		MaxZoom:         3.0,
	}

	ScreenShake = ScreenShakeConfig{
		SpawnIntensity: 2.5,
		SpawnDuration:  14,
		MaxIntensity:   6.0,
	}

	HUD = HUDConfig{
		Margin:         8,
		LineHeight:     14,
		ClipBarWidth:   120,
		ClipBarHeight:  5,
		ClipBarGap:     18,
		TextColor:      White,
		DimTextColor:   color.RGBA{R: 170, G: 170, B: 180, A: 255},
		BarBgColor:     color.RGBA{R: 40, G: 40, B: 52, A: 255},
		BarFgColor:     LightBlue,
		StatusDuration: 180,
	}

	Timeline = TimelineConfig{
		Height:          110,
		LaneHeight:      22,
		LaneGap:         4,
		RulerHeight:     14,
		PixelsPerSecond: 90,
		LabelWidth:      72,

		BackgroundColor: color.RGBA{R: 16, G: 16, B: 24, A: 235},
		LaneColor:       color.RGBA{R: 30, G: 30, B: 42, A: 255},
		EntryColor:      DarkBlue,
		EntryActive:     LightBlue,
		ProceduralColor: color.RGBA{R: 120, G: 80, B: 170, A: 255},
		TriggerColor:    Orange,
		PlayheadColor:   Red,
		RulerColor:      color.RGBA{R: 90, G: 90, B: 104, A: 255},
	}

	Menu = MenuConfig{
		BackgroundColor:   color.RGBA{R: 12, G: 12, B: 20, A: 255},
		TitleColor:        LightBlue,
		TextColorNormal:   color.RGBA{R: 180, G: 180, B: 190, A: 255},
		TextColorSelected: White,
		TitleY:            120,
		MenuStartY:        220,
		MenuItemHeight:    24,
		MenuItemGap:       12,
	}

	Debug = DebugConfig{}
}
