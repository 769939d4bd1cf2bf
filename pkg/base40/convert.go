package base40

import (
	"strings"

	"github.com/pkg/errors"
)

// lilypondOctave is the octave written without marks (c is C3)
const lilypondOctave = 3

// Semitone returns the chromatic note number in MIDI numbering (C4 = 60)
// without range checks. Enharmonic spellings share a semitone
func (p Pitch) Semitone() int {
	li, acc, octave, _ := spell(p.value)
	return 12*(octave+1) + diatonic[li].semitone + acc
}

// MIDI returns the MIDI note number, failing with ErrOutOfRange outside
// 0..127
func (p Pitch) MIDI() (uint8, error) {
	n := p.Semitone()
	if n < 0 || n > 127 {
		return 0, errors.Wrapf(ErrOutOfRange, "%s is note %d", p, n)
	}
	return uint8(n), nil
}

// LilyPond renders the pitch in LilyPond absolute-octave notation:
// C4 is "c'", Gb2 is "ges,", and each octave further adds one more mark
func (p Pitch) LilyPond() string {
	li, acc, octave, _ := spell(p.value)
	var b strings.Builder
	b.WriteByte(diatonic[li].name - 'A' + 'a')
	b.WriteString(accidentalString(acc, "is", "es"))
	if d := octave - lilypondOctave; d > 0 {
		b.WriteString(strings.Repeat("'", d))
	} else if d < 0 {
		b.WriteString(strings.Repeat(",", -d))
	}
	return b.String()
}
