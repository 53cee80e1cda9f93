package assets

import (
	"bytes"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"

	cfg "github.com/hatoba/efkstage/config"
)

// AudioLoader renders and caches the short PCM cues the app plays.
// Cues are synthesized from their ToneDef once and reused for every player,
// so there are no audio files to ship.
type AudioLoader struct {
	sfxCache map[cfg.SoundID][]byte // Cache rendered PCM per cue
	context  *audio.Context
}

// NewAudioLoader creates a new audio loader with the given context
func NewAudioLoader(ctx *audio.Context) *AudioLoader {
	return &AudioLoader{
		sfxCache: make(map[cfg.SoundID][]byte),
		context:  ctx,
	}
}

// PreloadSFX renders a cue and caches it without creating a player.
// Call this at startup to avoid synth work on first play.
func (l *AudioLoader) PreloadSFX(id cfg.SoundID) error {
	// Already cached
	if _, ok := l.sfxCache[id]; ok {
		return nil
	}

	tone, ok := cfg.Sound.Tones[id]
	if !ok {
		return fmt.Errorf("no tone definition for sound %d", id)
	}

	l.sfxCache[id] = renderTone(tone, l.context.SampleRate())
	return nil
}

// LoadSFX returns a new player for a cue, rendering it on first use.
// Each call gets its own player so overlapping cues mix.
func (l *AudioLoader) LoadSFX(id cfg.SoundID) (*audio.Player, error) {
	if err := l.PreloadSFX(id); err != nil {
		return nil, err
	}
	return l.context.NewPlayer(bytes.NewReader(l.sfxCache[id]))
}

// LoadMusic returns the looping ambient bed that plays under the stage scene.
func (l *AudioLoader) LoadMusic() (*audio.Player, error) {
	pcm := renderAmbientLoop(l.context.SampleRate())
	loop := audio.NewInfiniteLoop(bytes.NewReader(pcm), int64(len(pcm)))
	return l.context.NewPlayer(loop)
}

// renderTone synthesizes one cue as 16-bit little-endian stereo PCM:
// a sine burst under an exponential decay envelope, optionally gliding
// from Freq to SweepTo across the burst. Phase is accumulated rather
// than computed from t so the sweep stays click-free.
func renderTone(tone cfg.ToneDef, sampleRate int) []byte {
	sr := float64(sampleRate)
	samples := int(tone.Duration * sr)
	buf := make([]byte, 0, samples*4)

	phase := 0.0
	for n := 0; n < samples; n++ {
		t := float64(n) / sr
		freq := tone.Freq
		if tone.SweepTo != 0 {
			freq += (tone.SweepTo - tone.Freq) * (t / tone.Duration)
		}
		phase += 2 * math.Pi * freq / sr

		amp := tone.Gain * math.Exp(-tone.Decay*t)
		buf = appendSample(buf, amp*math.Sin(phase))
	}
	return buf
}

// renderAmbientLoop synthesizes the stage's ambient chord. Each voice is
// snapped to a whole number of cycles per loop and its tremolo to a whole
// number of swells, so the buffer repeats without a seam.
func renderAmbientLoop(sampleRate int) []byte {
	sr := float64(sampleRate)
	loopSec := cfg.Sound.AmbientLoopSec
	samples := int(loopSec * sr)
	buf := make([]byte, 0, samples*4)

	freqs := make([]float64, len(cfg.Sound.AmbientFreqs))
	for i, f := range cfg.Sound.AmbientFreqs {
		freqs[i] = math.Round(f*loopSec) / loopSec
	}

	for n := 0; n < samples; n++ {
		t := float64(n) / sr
		var s float64
		for i, f := range freqs {
			// Stagger tremolo rates so voices breathe out of step.
			lfo := 0.75 + 0.25*math.Sin(2*math.Pi*float64(i+1)*t/loopSec)
			s += lfo * math.Sin(2*math.Pi*f*t)
		}
		s *= cfg.Sound.AmbientGain / float64(len(freqs))
		buf = appendSample(buf, s)
	}
	return buf
}

// appendSample writes one stereo frame, clamping to int16 range.
func appendSample(buf []byte, s float64) []byte {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	v := int16(s * 32767)
	lo, hi := byte(v), byte(v>>8)
	return append(buf, lo, hi, lo, hi)
}
