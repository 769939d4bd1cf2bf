package audio

import (
	"math"
	"sync"
	"time"

	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/tracker"
)

// PlayerCallbacks are invoked with the player lock held; they must not call
// back into the player.
type PlayerCallbacks struct {
	OnTick    func(pos, pat, row, tick int)
	OnRow     func(pos, pat, row int)
	OnPattern func(pos, pat int)
	// OnNote reports pattern notes starting and stopping, before ornaments
	OnNote func(ch int, p base40.Pitch, on bool)
}

// songPos addresses one tick of the song
type songPos struct {
	order, pattern, row, tick int
}

// Player renders a song tick by tick
type Player struct {
	Song       *tracker.Song
	Channels   []*ChannelState
	SampleRate int

	// TickSamples is the length of one tick in samples
	TickSamples int

	Callbacks PlayerCallbacks

	playing  bool
	at       songPos
	elapsed  int // samples into the current tick
	wall     time.Time
	sounding []bool // a note-on was reported and not yet released
	mu       sync.Mutex
}

func NewPlayer(song *tracker.Song) *Player {
	p := &Player{
		Song:       song,
		SampleRate: song.SampleRate,
		Channels:   make([]*ChannelState, song.Channels),
		sounding:   make([]bool, song.Channels),
	}
	for i := range p.Channels {
		cs := NewChannelState(float64(song.SampleRate))
		if i < len(song.ChanConfig) {
			cs.Oscillator.Type = song.ChanConfig[i].Generator
		}
		p.Channels[i] = cs
	}
	p.UpdateTiming()
	return p
}

// UpdateTiming derives the tick length from the song tempo, at
// tempo*2/5 ticks per second
func (p *Player) UpdateTiming() {
	perTick := float64(p.SampleRate) * 5 / (2 * float64(p.Song.Tempo))
	p.TickSamples = max(int(perTick), 1)
}

// Play starts from the current position, sounding its row at once
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.at.tick = 0
	p.elapsed = 0
	p.wall = time.Now()
	p.enterRow()
	p.runTick()
	p.at.tick = 1
}

// Stop halts playback and releases every sounding note
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	for ch, cs := range p.Channels {
		p.release(ch)
		cs.Active = false
		cs.Volume = 0
	}
}

// SetPosition moves to a row of an order entry
func (p *Player) SetPosition(pos, row int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.at = songPos{order: pos, pattern: p.at.pattern, row: row}
	if pos < len(p.Song.Order) {
		p.at.pattern = int(p.Song.Order[pos])
	}
	p.elapsed = 0
}

// AdvanceTime catches playback up with the wall clock, for running
// without an audio device
func (p *Player) AdvanceTime() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	now := time.Now()
	n := int(now.Sub(p.wall).Seconds() * float64(p.SampleRate))
	p.wall = now
	for ; n > 0; n-- {
		p.step()
	}
}

// step advances the clock by one sample
func (p *Player) step() {
	if p.elapsed++; p.elapsed < p.TickSamples {
		return
	}
	p.elapsed = 0

	if p.at.tick >= int(p.Song.Speed) {
		p.at.tick = 0
		p.advanceRow()
		p.enterRow()
	}
	p.runTick()
	if cb := p.Callbacks.OnTick; cb != nil {
		cb(p.at.order, p.at.pattern, p.at.row, p.at.tick)
	}
	p.at.tick++
}

// advanceRow moves to the next row, wrapping to the next order entry and
// from the last entry back to the first
func (p *Player) advanceRow() {
	p.at.row++
	if pat := p.pattern(); pat != nil && p.at.row < pat.Rows {
		return
	}
	p.at.row = 0
	prev := p.at.order
	if p.at.order++; p.at.order >= len(p.Song.Order) {
		p.at.order = 0
	}
	if len(p.Song.Order) > 0 {
		p.at.pattern = int(p.Song.Order[p.at.order])
	}
	if cb := p.Callbacks.OnPattern; cb != nil && p.at.order != prev {
		cb(p.at.order, p.at.pattern)
	}
}

func (p *Player) pattern() *tracker.Pattern {
	if p.at.pattern < 0 || p.at.pattern >= len(p.Song.Patterns) {
		return nil
	}
	return p.Song.Patterns[p.at.pattern]
}

// enterRow triggers and releases the notes of the current row
func (p *Player) enterRow() {
	if pat := p.pattern(); pat != nil && p.at.row < pat.Rows {
		cells := pat.Notes[p.at.row]
		for ch := 0; ch < len(p.Channels) && ch < len(cells); ch++ {
			p.play(ch, cells[ch])
		}
	}
	if cb := p.Callbacks.OnRow; cb != nil {
		cb(p.at.order, p.at.pattern, p.at.row)
	}
}

func (p *Player) play(ch int, note tracker.Note) {
	cs := p.Channels[ch]
	switch note.Kind {
	case tracker.NoteOff:
		p.release(ch)
		cs.NoteOff()
	case tracker.NoteOn:
		p.release(ch)
		cs.TriggerNote(note.Pitch, p.instrument(cs, note.Instrument), note.Volume)
		if !p.channelAudible(ch) {
			return
		}
		p.sounding[ch] = true
		if cb := p.Callbacks.OnNote; cb != nil {
			cb(ch, note.Pitch, true)
		}
	}
}

// instrument resolves a 1-based instrument number, 0 meaning the channel's
// current one
func (p *Player) instrument(cs *ChannelState, num uint8) *tracker.Instrument {
	insts := p.Song.Instruments
	if i := int(num) - 1; i >= 0 && i < len(insts) {
		cs.Instrument = i
	}
	if cs.Instrument < 0 || cs.Instrument >= len(insts) {
		return nil
	}
	return &insts[cs.Instrument]
}

// release reports the end of a channel's sounding note
func (p *Player) release(ch int) {
	if !p.sounding[ch] {
		return
	}
	p.sounding[ch] = false
	if cb := p.Callbacks.OnNote; cb != nil {
		cb(ch, p.Channels[ch].BasePitch, false)
	}
}

func (p *Player) channelAudible(ch int) bool {
	return ch >= len(p.Song.ChanConfig) || !p.Song.ChanConfig[ch].Muted
}

// runTick steps ornaments and envelopes of the active channels
func (p *Player) runTick() {
	for ch, cs := range p.Channels {
		if !cs.Active {
			continue
		}
		if n := cs.Ornament; n > 0 && n <= len(p.Song.Ornaments) {
			cs.ProcessOrnament(&p.Song.Ornaments[n-1])
		}

		var env *tracker.Envelope
		if inst := p.instrument(cs, 0); inst != nil {
			env = &inst.Envelope
		}
		if cs.ProcessEnvelope(env); !cs.Active {
			p.release(ch)
		}
	}
}

// GenerateSamples fills buffer with mono samples, advancing playback
func (p *Player) GenerateSamples(buffer []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	gain := 1 / math.Sqrt(float64(max(len(p.Channels), 1)))
	for i := range buffer {
		if p.playing {
			p.step()
		}
		buffer[i] = softLimit(p.mix() * gain)
	}
}

// mix sums one sample of every audible channel at its channel volume
func (p *Player) mix() float64 {
	var sum float64
	for ch, cs := range p.Channels {
		s := cs.GenerateSample()
		if ch < len(p.Song.ChanConfig) {
			cfg := p.Song.ChanConfig[ch]
			if cfg.Muted {
				continue
			}
			s *= float64(cfg.Volume) / 64.0
		}
		sum += s
	}
	return sum
}

// softLimit passes -0.9..0.9 through and bends the rest toward +-1
func softLimit(x float64) float64 {
	const knee = 0.9
	switch {
	case x > knee:
		return knee + (1-knee)*math.Tanh((x-knee)*10)
	case x < -knee:
		return -knee + (1-knee)*math.Tanh((x+knee)*10)
	}
	return x
}

// GetPlaybackInfo reports where playback is
func (p *Player) GetPlaybackInfo() (pos, pat, row, tick int, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.at.order, p.at.pattern, p.at.row, p.at.tick, p.playing
}

// SoundingPitch returns the pitch a channel currently plays, ornament included
func (p *Player) SoundingPitch(ch int) (base40.Pitch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch < 0 || ch >= len(p.Channels) || !p.Channels[ch].Active {
		return base40.Pitch{}, false
	}
	return p.Channels[ch].Pitch, true
}
