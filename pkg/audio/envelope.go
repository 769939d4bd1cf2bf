package audio

import "github.com/oisee/fortytracker/pkg/tracker"

type envStage int

const (
	stageAttack envStage = iota
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

// silence is the level below which a releasing note stops
const silence = 0.001

// envelope walks the ADSR stages one tick at a time. Attack, decay and
// release are lengths in ticks; sustain is a level out of 64.
type envelope struct {
	stage envStage
	pos   float64 // progress through the current stage, 0..1
}

func (e *envelope) start() {
	*e = envelope{}
}

func (e *envelope) release() {
	e.stage, e.pos = stageRelease, 0
}

// advance moves pos by one tick of a stage lasting ticks; it reports true
// once the stage has run out
func (e *envelope) advance(ticks uint8) bool {
	if ticks == 0 {
		e.pos = 1
	} else {
		e.pos += 1.0 / float64(ticks)
	}
	if e.pos < 1 {
		return false
	}
	e.pos = 0
	e.stage++
	return true
}

// tick returns the level for this tick given the peak and the last level
func (e *envelope) tick(env *tracker.Envelope, peak, level float64) float64 {
	sustain := float64(env.Sustain) / 64.0 * peak
	switch e.stage {
	case stageAttack:
		if e.advance(env.Attack) {
			return peak
		}
		return peak * e.pos
	case stageDecay:
		if e.advance(env.Decay) {
			return sustain
		}
		return peak - (peak-sustain)*e.pos
	case stageSustain:
		return sustain
	case stageRelease:
		if env.Release == 0 || level <= silence {
			e.stage = stageDone
			return 0
		}
		e.pos += 1.0 / float64(env.Release)
		level *= 1.0 - e.pos*0.1
		if level <= silence {
			e.stage = stageDone
			return 0
		}
		return level
	}
	return 0
}
