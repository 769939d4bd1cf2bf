package tracker

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/oisee/fortytracker/pkg/base40"
)

// Pattern holds one pattern of notes
type Pattern struct {
	Rows     int      // Number of rows (typically 64)
	Channels int      // Number of channels
	Notes    [][]Note // [row][channel]
}

// NewPattern creates a new empty pattern
func NewPattern(rows, channels int) *Pattern {
	p := &Pattern{
		Rows:     rows,
		Channels: channels,
		Notes:    make([][]Note, rows),
	}
	for i := range p.Notes {
		p.Notes[i] = make([]Note, channels)
		for j := range p.Notes[i] {
			p.Notes[i][j] = Empty()
		}
	}
	return p
}

// noteWidth is the cell width of a rendered note; "C##-1" is the widest
// name a tracker octave range produces.
const noteWidth = 5

// NoteToString renders a cell as a fixed-width note name
func NoteToString(n Note) string {
	switch n.Kind {
	case NoteOn:
		return fmt.Sprintf("%-*s", noteWidth, n.Pitch.Name())
	case NoteOff:
		return fmt.Sprintf("%-*s", noteWidth, "OFF")
	}
	return strings.Repeat("-", noteWidth)
}

// StringToNote parses a rendered cell back
func StringToNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.Trim(s, "-") == "":
		return Empty(), nil
	case s == "OFF":
		return Off(), nil
	}
	p, err := base40.ParsePitch(s)
	if err != nil {
		return Note{}, err
	}
	return On(p, 0), nil
}

// mapNotes applies fn to every note-on and only commits when all succeed
func (p *Pattern) mapNotes(fn func(base40.Pitch) (base40.Pitch, error)) error {
	out := make([][]base40.Pitch, p.Rows)
	for row := range p.Notes {
		out[row] = make([]base40.Pitch, len(p.Notes[row]))
		for ch, n := range p.Notes[row] {
			if n.Kind != NoteOn {
				continue
			}
			r, err := fn(n.Pitch)
			if err != nil {
				return errors.Wrapf(err, "row %02X channel %d", row, ch+1)
			}
			out[row][ch] = r
		}
	}
	for row := range p.Notes {
		for ch := range p.Notes[row] {
			if p.Notes[row][ch].Kind == NoteOn {
				p.Notes[row][ch].Pitch = out[row][ch]
			}
		}
	}
	return nil
}

// Transpose moves every note by an interval. Nothing changes if any note
// would need more than two accidentals.
func (p *Pattern) Transpose(i base40.Interval) error {
	return p.mapNotes(func(pitch base40.Pitch) (base40.Pitch, error) {
		return pitch.Add(i)
	})
}

// Invert mirrors every note around an axis pitch. Nothing changes if any
// note cannot be spelled.
func (p *Pattern) Invert(axis base40.Pitch) error {
	return p.mapNotes(func(pitch base40.Pitch) (base40.Pitch, error) {
		return pitch.Inverted(axis)
	})
}

// Step is a melodic move between two consecutive notes of a channel
type Step struct {
	Row      int
	From, To base40.Pitch
	Interval base40.Interval
	Err      error // set when the move has no interval name
}

// Intervals lists the melodic steps of one channel
func (p *Pattern) Intervals(ch int) []Step {
	var steps []Step
	var prev *Note
	for row := range p.Notes {
		if ch >= len(p.Notes[row]) {
			continue
		}
		n := &p.Notes[row][ch]
		if n.Kind != NoteOn {
			continue
		}
		if prev != nil {
			i, err := prev.Pitch.Interval(n.Pitch)
			steps = append(steps, Step{Row: row, From: prev.Pitch, To: n.Pitch, Interval: i, Err: err})
		}
		prev = n
	}
	return steps
}

// PreviousNote finds the closest note-on above row in a channel
func (p *Pattern) PreviousNote(row, ch int) (base40.Pitch, bool) {
	for r := row - 1; r >= 0; r-- {
		if ch < len(p.Notes[r]) && p.Notes[r][ch].Kind == NoteOn {
			return p.Notes[r][ch].Pitch, true
		}
	}
	return base40.Pitch{}, false
}
