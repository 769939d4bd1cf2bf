// Package midiout streams spelled notes to a MIDI byte sink
package midiout

import (
	"io"
	"sync"

	"github.com/gomidi/midi"
	"github.com/gomidi/midi/midimessage/channel"
	"github.com/gomidi/midi/midiwriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oisee/fortytracker/pkg/base40"
)

var (
	ErrNoteRunning    = errors.New("note already running")
	ErrNoteNotRunning = errors.New("note is not running")
	ErrBadChannel     = errors.New("midi channel out of range")
)

// Writer refuses to start a running note or stop a silent one.
type Writer struct {
	wr        midi.Writer
	noteState [16][128]bool
	mu        sync.Mutex
}

// NewWriter writes raw MIDI bytes to dest without running status
func NewWriter(dest io.Writer, options ...midiwriter.Option) *Writer {
	options = append([]midiwriter.Option{midiwriter.NoRunningStatus()}, options...)
	return &Writer{wr: midiwriter.New(dest, options...)}
}

func key(ch int, p base40.Pitch) (channel.Channel, uint8, error) {
	if ch < 0 || ch > 15 {
		return 0, 0, errors.Wrapf(ErrBadChannel, "channel %d", ch)
	}
	k, err := p.MIDI()
	if err != nil {
		return 0, 0, err
	}
	return channel.Channel(ch), k, nil
}

// NoteOn starts a pitch on a zero-based channel
func (w *Writer) NoteOn(ch int, p base40.Pitch, velocity uint8) error {
	c, k, err := key(ch, p)
	if err != nil {
		return err
	}
	velocity &= 0x7F
	if velocity == 0 {
		velocity = 1
	}
	return w.Write(c.NoteOn(k, velocity))
}

// NoteOff stops a pitch. Any spelling of the same key stops it.
func (w *Writer) NoteOff(ch int, p base40.Pitch) error {
	c, k, err := key(ch, p)
	if err != nil {
		return err
	}
	return w.Write(c.NoteOff(k))
}

// Write sends a message, tracking note state for note messages. The state
// only changes once the bytes are written.
func (w *Writer) Write(msg midi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		ch, k   uint8
		on      bool
		tracked = true
	)
	switch m := msg.(type) {
	case channel.NoteOn:
		ch, k, on = m.Channel(), m.Key(), m.Velocity() > 0
	case channel.NoteOff:
		ch, k = m.Channel(), m.Key()
	case channel.NoteOffVelocity:
		ch, k = m.Channel(), m.Key()
	default:
		tracked = false
	}
	if tracked {
		running := w.noteState[ch][k]
		if on && running {
			return errors.Wrapf(ErrNoteRunning, "writing %s", msg)
		}
		if !on && !running {
			return errors.Wrapf(ErrNoteNotRunning, "writing %s", msg)
		}
	}
	if err := w.wr.Write(msg); err != nil {
		return errors.Wrap(err, "writing midi")
	}
	if tracked {
		w.noteState[ch][k] = on
	}
	return nil
}

// Running reports whether a key is held on a channel
func (w *Writer) Running(ch int, k uint8) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ch >= 0 && ch < 16 && k < 128 && w.noteState[ch][k]
}

// AllOff stops every running note
func (w *Writer) AllOff() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.noteState {
		for k, on := range w.noteState[ch] {
			if !on {
				continue
			}
			if err := w.wr.Write(channel.Channel(ch).NoteOff(uint8(k))); err != nil {
				return errors.Wrap(err, "writing midi")
			}
			w.noteState[ch][k] = false
		}
	}
	return nil
}

// NoteHandler adapts the writer to a player note callback. Tracker channels
// map to MIDI channels modulo 16; failures are logged and dropped.
func (w *Writer) NoteHandler(velocity uint8) func(ch int, p base40.Pitch, on bool) {
	return func(ch int, p base40.Pitch, on bool) {
		var err error
		if on {
			err = w.NoteOn(ch%16, p, velocity)
		} else {
			err = w.NoteOff(ch%16, p)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"channel": ch, "pitch": p.Name(), "on": on}).
				WithError(err).Warn("midi note dropped")
		}
	}
}
