package config

// SoundID represents a logical sound effect
type SoundID int

const (
	SoundNone SoundID = iota
	// Transport sounds
	SoundPlay
	SoundStop
	SoundLoopWrap
	// Engine feedback
	SoundTriggerFire
	SoundClipStart
	// Editor feedback
	SoundReloadOK
	SoundReloadFail
	// UI sounds
	SoundMenuNavigate
	SoundMenuSelect
)

// AudioConfig contains audio-related configuration values
type AudioConfig struct {
	SampleRate        int
	DefaultMusicVol   float64
	DefaultSFXVol     float64
	MusicFadeDuration int // frames for music fade out (60 = 1 second at 60fps)
}

// ToneDef describes one synthesized cue: a sine burst with an exponential
// decay envelope. SweepTo, when non-zero, glides the pitch across the burst.
type ToneDef struct {
	Freq     float64 // Hz
	SweepTo  float64 // Hz, 0 = no sweep
	Duration float64 // seconds
	Decay    float64 // envelope decay constant, higher = snappier
	Gain     float64 // 0.0 - 1.0
}

// SoundConfig maps sound IDs to their synthesis parameters
type SoundConfig struct {
	Tones             map[SoundID]ToneDef
	VolumeMultipliers map[SoundID]float64

	// Ambient loop: a slow chord that plays under the stage scene.
	AmbientFreqs   []float64
	AmbientGain    float64
	AmbientLoopSec float64
}

var Audio AudioConfig
var Sound SoundConfig

func init() {
	Audio = AudioConfig{
		SampleRate:        44100,
		DefaultMusicVol:   0.4,
		DefaultSFXVol:     1.0,
		MusicFadeDuration: 60,
	}

	Sound = SoundConfig{
		Tones: map[SoundID]ToneDef{
			SoundPlay:         {Freq: 660, Duration: 0.08, Decay: 28, Gain: 0.5},
			SoundStop:         {Freq: 330, SweepTo: 220, Duration: 0.12, Decay: 20, Gain: 0.5},
			SoundLoopWrap:     {Freq: 440, SweepTo: 660, Duration: 0.10, Decay: 18, Gain: 0.4},
			SoundTriggerFire:  {Freq: 880, SweepTo: 1320, Duration: 0.09, Decay: 30, Gain: 0.6},
			SoundClipStart:    {Freq: 520, Duration: 0.05, Decay: 45, Gain: 0.35},
			SoundReloadOK:     {Freq: 523, SweepTo: 784, Duration: 0.18, Decay: 14, Gain: 0.5},
			SoundReloadFail:   {Freq: 220, SweepTo: 140, Duration: 0.25, Decay: 10, Gain: 0.55},
			SoundMenuNavigate: {Freq: 600, Duration: 0.04, Decay: 50, Gain: 0.4},
			SoundMenuSelect:   {Freq: 740, SweepTo: 880, Duration: 0.09, Decay: 26, Gain: 0.5},
		},
		VolumeMultipliers: map[SoundID]float64{
			SoundTriggerFire: 1.3,
			SoundClipStart:   0.6,
		},

		// A minor add9 voicing, low enough to sit under the SFX.
		AmbientFreqs:   []float64{110, 164.81, 220, 246.94},
		AmbientGain:    0.12,
		AmbientLoopSec: 8.0,
	}
}
