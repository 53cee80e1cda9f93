package animations

// Animation steps through a strip of sheet frame indices at a fixed tick
// cadence.
type Animation struct {
	First            int
	Last             int
	Step             int     // how many indices do we move per frame
	SpeedInTps       float32 // how many ticks before next frame
	frameCounter     float32
	frame            int
	Looped           bool
	FreezeOnComplete bool // If true, stay on last frame instead of looping
}

func (a *Animation) Update() {
	a.UpdateWithRate(1)
}

// UpdateWithRate advances by rate ticks. Fractional rates accumulate in the
// counter, so a 0.5x transport halves the frame cadence instead of
// stalling it, and a 2x transport can cross several frames in one tick.
func (a *Animation) UpdateWithRate(rate float32) {
	if rate <= 0 {
		return
	}
	tps := a.SpeedInTps
	if tps < 1 {
		tps = 1
	}
	a.frameCounter -= rate
	for a.frameCounter < 0.0 {
		a.frameCounter += tps
		a.frame += a.Step
		if a.frame > a.Last {
			a.Looped = true
			if a.FreezeOnComplete {
				// Stay on last frame
				a.frame = a.Last
			} else {
				// loop back to the beginning
				a.frame = a.First
			}
		}
	}
}

func (a *Animation) Frame() int {
	return a.frame
}

func (a *Animation) Restart() {
	a.frame = a.First
	a.frameCounter = a.SpeedInTps
	a.Looped = false
}

func NewAnimation(first, last, step int, speed float32) *Animation {
	return &Animation{
		First:        first,
		Last:         last,
		Step:         step,
		SpeedInTps:   speed,
		frameCounter: speed,
		frame:        first,
		Looped:       false,
	}
}
