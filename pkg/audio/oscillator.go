// Package audio implements the audio synthesis engine
package audio

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/tracker"
)

// waveform maps a phase in [0,1) to a sample in [-1,1]
type waveform func(phase, duty float64) float64

var waveforms = map[tracker.Generator]waveform{
	tracker.GenTriangle: func(ph, _ float64) float64 {
		if ph < 0.5 {
			return 4*ph - 1
		}
		return 3 - 4*ph
	},
	tracker.GenSawtooth: func(ph, _ float64) float64 {
		return 2*ph - 1
	},
	tracker.GenSquare: func(ph, duty float64) float64 {
		if ph < duty {
			return 1
		}
		return -1
	},
}

// Oscillator is a phase accumulator driving one generator
type Oscillator struct {
	Type       tracker.Generator
	Phase      float64
	Frequency  float64
	SampleRate float64
	Duty       float64 // high fraction of a square period, 0.5 by default

	noise uint32 // LCG state, stepped once per period
}

// NewOscillator returns a silent oscillator for a generator
func NewOscillator(gen tracker.Generator, sampleRate float64) *Oscillator {
	return &Oscillator{Type: gen, SampleRate: sampleRate, Duty: 0.5, noise: 1}
}

// SetDuty clamps and sets the square duty cycle
func (o *Oscillator) SetDuty(duty float64) {
	o.Duty = math.Max(0, math.Min(1, duty))
}

// SetFrequency sets the rate in Hz; zero or less silences the oscillator
func (o *Oscillator) SetFrequency(freq float64) {
	o.Frequency = freq
}

// PitchToFreq converts a spelled pitch to equal-tempered frequency, A4 = 440 Hz.
// Enharmonic spellings sound the same.
func PitchToFreq(p base40.Pitch) float64 {
	return 440.0 * math.Pow(2.0, float64(p.Semitone()-69)/12.0)
}

// Sample advances the phase by one sample and returns the output
func (o *Oscillator) Sample() float64 {
	if o.Frequency <= 0 {
		return 0
	}
	o.Phase += o.Frequency / o.SampleRate
	wrapped := o.Phase >= 1
	o.Phase -= math.Floor(o.Phase)

	if o.Type == tracker.GenNoise {
		if wrapped {
			o.noise = o.noise*1103515245 + 12345
		}
		return float64(int32(o.noise)) / -math.MinInt32
	}
	if w, ok := waveforms[o.Type]; ok {
		return w(o.Phase, o.Duty)
	}
	return 0
}

// Reset restarts the period
func (o *Oscillator) Reset() {
	o.Phase = 0
}

// ChannelState is one voice of the player
type ChannelState struct {
	Active     bool
	Oscillator *Oscillator
	Instrument int
	Pitch      base40.Pitch // Sounding pitch after ornament
	BasePitch  base40.Pitch // Pitch from the pattern
	Volume     float64      // 0.0 to 1.0
	TargetVol  float64      // Level the envelope peaks at
	Frequency  float64

	env envelope

	// Ornament state, 1-based, 0 = none
	Ornament int
	OrnPos   int
}

// NewChannelState returns an idle voice
func NewChannelState(sampleRate float64) *ChannelState {
	return &ChannelState{
		Oscillator: NewOscillator(tracker.GenTriangle, sampleRate),
	}
}

// TriggerNote starts a pitch with an instrument; volume < 0 keeps the
// instrument's level
func (cs *ChannelState) TriggerNote(p base40.Pitch, inst *tracker.Instrument, volume int8) {
	cs.Active = true
	cs.Pitch, cs.BasePitch = p, p
	cs.setFrequency(p)
	cs.Oscillator.Reset()

	duty := 0.5
	if inst != nil {
		cs.Oscillator.Type = inst.Generator
		cs.Ornament = int(inst.Ornament)
		if inst.Duty > 0 {
			duty = float64(inst.Duty) / 255.0
		}
		cs.TargetVol = float64(inst.Volume) / 64.0
	}
	cs.Oscillator.SetDuty(duty)
	if volume >= 0 {
		cs.TargetVol = float64(volume) / 64.0
	}

	cs.env.start()
	cs.OrnPos = 0
}

func (cs *ChannelState) setFrequency(p base40.Pitch) {
	cs.Frequency = PitchToFreq(p)
	cs.Oscillator.SetFrequency(cs.Frequency)
}

// NoteOff moves the envelope to its release stage
func (cs *ChannelState) NoteOff() {
	cs.env.release()
}

// ProcessEnvelope advances the envelope one tick and returns the volume.
// A channel without an envelope plays flat at its target level.
func (cs *ChannelState) ProcessEnvelope(env *tracker.Envelope) float64 {
	if env == nil {
		cs.Volume = cs.TargetVol
		return cs.Volume
	}
	cs.Volume = cs.env.tick(env, cs.TargetVol, cs.Volume)
	if cs.env.stage == stageDone {
		cs.Active = false
	}
	return cs.Volume
}

// ProcessOrnament moves to the next ornament step. A step that lands on an
// unspellable pitch sounds the base pitch instead.
func (cs *ChannelState) ProcessOrnament(orn *tracker.Ornament) {
	if orn == nil || len(orn.Steps) == 0 {
		return
	}
	if cs.OrnPos >= len(orn.Steps) {
		cs.OrnPos = 0
	}

	step := orn.Steps[cs.OrnPos]
	p, err := cs.BasePitch.Add(step)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"ornament": orn.Name,
			"step":     step.Name(),
			"pitch":    cs.BasePitch.Name(),
		}).Warn("ornament step has no spelling")
		p = cs.BasePitch
	}
	cs.Pitch = p
	cs.setFrequency(p)

	cs.OrnPos++
	if cs.OrnPos >= len(orn.Steps) {
		if orn.Loop >= 0 && int(orn.Loop) < len(orn.Steps) {
			cs.OrnPos = int(orn.Loop)
		} else {
			cs.OrnPos = len(orn.Steps) - 1
		}
	}
}

// GenerateSample returns the channel's next sample at its envelope level
func (cs *ChannelState) GenerateSample() float64 {
	if !cs.Active || cs.Volume <= 0 {
		return 0
	}
	return cs.Oscillator.Sample() * cs.Volume
}
