// Package tracker holds songs, patterns and instruments with spelled pitches
package tracker

import (
	"strconv"

	"github.com/oisee/fortytracker/pkg/base40"
)

// NoteKind tells what a pattern cell holds
type NoteKind uint8

const (
	NoteEmpty NoteKind = iota
	NoteOn
	NoteOff
)

// Note is one pattern cell
type Note struct {
	Kind       NoteKind
	Pitch      base40.Pitch // valid when Kind == NoteOn
	Instrument uint8        // 0 = no change, 1-255 = instrument number
	Volume     int8         // 0-64, -1 = no change
}

// Empty returns a blank cell
func Empty() Note {
	return Note{Kind: NoteEmpty, Volume: -1}
}

// On returns a note-on cell
func On(p base40.Pitch, instrument uint8) Note {
	return Note{Kind: NoteOn, Pitch: p, Instrument: instrument, Volume: -1}
}

// Off returns a note-off cell
func Off() Note {
	return Note{Kind: NoteOff, Volume: -1}
}

// Generator selects an oscillator waveform
type Generator uint8

const (
	GenTriangle Generator = iota
	GenSawtooth
	GenSquare
	GenNoise
)

var generatorNames = []string{"triangle", "sawtooth", "square", "noise"}

func (g Generator) String() string {
	if int(g) < len(generatorNames) {
		return generatorNames[g]
	}
	return "unknown"
}

// ParseGenerator looks a generator up by name
func ParseGenerator(name string) (Generator, bool) {
	for i, n := range generatorNames {
		if n == name {
			return Generator(i), true
		}
	}
	return 0, false
}

type Instrument struct {
	Name      string
	Generator Generator
	Envelope  Envelope
	Ornament  uint8 // 1-based, 0 = none
	Volume    uint8 // 0..64
	Duty      uint8 // square high fraction in 1/255, 0 = half
}

// Envelope stage lengths are in ticks; Sustain is a level out of 64
type Envelope struct {
	Attack  uint8
	Decay   uint8
	Sustain uint8
	Release uint8
}

// Ornament is a per-tick arpeggio spelled as intervals above the played note
type Ornament struct {
	Name  string
	Loop  int8 // step to jump back to, -1 = hold the last step
	Steps []base40.Interval
}

type ChannelConfig struct {
	Name      string
	Generator Generator
	Volume    uint8 // 0..64
	Muted     bool
}

type Song struct {
	Title      string
	Author     string
	Speed      uint8 // ticks per row
	Tempo      uint8 // ticks per second is Tempo*2/5
	SampleRate int
	Channels   int

	Instruments []Instrument
	Ornaments   []Ornament
	Patterns    []*Pattern
	Order       []uint8 // pattern indices in play order
	ChanConfig  []ChannelConfig
}

var defaultChannels = []ChannelConfig{
	{Name: "Lead", Generator: GenTriangle},
	{Name: "Bass", Generator: GenSawtooth},
	{Name: "Chord1", Generator: GenSquare},
	{Name: "Chord2", Generator: GenSquare},
	{Name: "Perc1", Generator: GenNoise},
	{Name: "Perc2", Generator: GenNoise},
}

// NewSong returns a one-pattern song with the stock instruments
func NewSong(channels int) *Song {
	if channels < 1 {
		channels = 4
	}

	s := &Song{
		Title:      "Untitled",
		Speed:      6,
		Tempo:      125,
		SampleRate: 44100,
		Channels:   channels,
		ChanConfig: make([]ChannelConfig, channels),
		Patterns:   []*Pattern{NewPattern(64, channels)},
		Order:      []uint8{0},
	}

	for i := range s.ChanConfig {
		cfg := ChannelConfig{Name: "CH" + strconv.Itoa(i+1), Generator: GenTriangle}
		if i < len(defaultChannels) {
			cfg = defaultChannels[i]
		}
		cfg.Volume = 64
		s.ChanConfig[i] = cfg
	}

	s.Instruments = []Instrument{
		{Name: "Lead", Generator: GenTriangle, Volume: 64, Envelope: Envelope{Attack: 0, Decay: 20, Sustain: 48, Release: 30}},
		{Name: "Bass", Generator: GenSawtooth, Volume: 56, Envelope: Envelope{Attack: 0, Decay: 40, Sustain: 40, Release: 20}},
		{Name: "Pad", Generator: GenSquare, Volume: 40, Envelope: Envelope{Attack: 30, Decay: 10, Sustain: 50, Release: 50}},
		{Name: "Kick", Generator: GenNoise, Volume: 64, Envelope: Envelope{Attack: 0, Decay: 15, Sustain: 0, Release: 10}},
	}
	s.Ornaments = DefaultOrnaments()
	return s
}

// DefaultOrnaments returns the stock chord arpeggios
func DefaultOrnaments() []Ornament {
	arp := func(name string, steps ...string) Ornament {
		o := Ornament{Name: name, Loop: 0}
		for _, s := range steps {
			o.Steps = append(o.Steps, base40.MustInterval(s))
		}
		return o
	}
	return []Ornament{
		arp("Arp Maj", "+P1", "+M3", "+P5"),
		arp("Arp Min", "+P1", "+m3", "+P5"),
		arp("Arp 7th", "+P1", "+M3", "+P5", "+m7"),
		arp("Arp Dim", "+P1", "+m3", "+d5", "+d7"),
		arp("Arp Aug", "+P1", "+M3", "+A5"),
		arp("Arp Oct", "+P1", "+P8", "+P1", "+P8"),
	}
}
