package base40

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pitch is a spelled pitch identified by its base-40 number.
// C4 (middle C) is 163; each octave adds 40
type Pitch struct {
	value int
}

// ParsePitch parses a name such as "C4", "F#3", "Bbb-1" or "E##5".
// The letter is uppercase, at most two accidentals of one kind follow
// ('#' sharp, 'b' flat) and the octave is a plain decimal integer
func ParsePitch(name string) (Pitch, error) {
	if name == "" {
		return Pitch{}, pitchError(name, "empty")
	}
	li, ok := letterIndex(name[0])
	if !ok {
		return Pitch{}, pitchError(name, "letter must be one of A B C D E F G")
	}

	rest := name[1:]
	sharps, flats := 0, 0
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			sharps++
		} else {
			flats++
		}
		rest = rest[1:]
	}
	if sharps > 0 && flats > 0 {
		return Pitch{}, pitchError(name, "sharps and flats mixed")
	}
	if sharps > MaxAccidentals || flats > MaxAccidentals {
		return Pitch{}, pitchError(name, "more than two accidentals")
	}

	octave, ok := parseNumber(rest, true)
	if !ok {
		return Pitch{}, pitchError(name, "octave must be an integer of modest size")
	}
	return Pitch{value: diatonic[li].slot + sharps - flats + octave*Octave}, nil
}

// NewPitch wraps a base-40 number. Numbers that would need more than two
// accidentals under every letter are rejected with ErrUnrepresentable
func NewPitch(value int) (Pitch, error) {
	if _, _, _, ok := spell(value); !ok {
		return Pitch{}, errors.Wrapf(ErrUnrepresentable, "pitch value %d", value)
	}
	return Pitch{value: value}, nil
}

// MustPitch is like ParsePitch but panics on error
func MustPitch(name string) Pitch {
	p, err := ParsePitch(name)
	if err != nil {
		panic(err)
	}
	return p
}

// spell splits a base-40 number into letter row, accidental count and octave
func spell(value int) (li, acc, octave int, ok bool) {
	octave = floorDiv(value-1, Octave)
	slot := value - octave*Octave
	for i, l := range diatonic {
		if d := slot - l.slot; d >= -MaxAccidentals && d <= MaxAccidentals {
			return i, d, octave, true
		}
	}
	return 0, 0, 0, false
}

// Value returns the base-40 number
func (p Pitch) Value() int {
	return p.value
}

// Letter returns the uppercase letter name
func (p Pitch) Letter() byte {
	li, _, _, _ := spell(p.value)
	return diatonic[li].name
}

// Accidentals returns the accidental count: positive for sharps, negative
// for flats
func (p Pitch) Accidentals() int {
	_, acc, _, _ := spell(p.value)
	return acc
}

// Octave returns the octave number, 4 being the octave of middle C
func (p Pitch) Octave() int {
	_, _, octave, _ := spell(p.value)
	return octave
}

// Name renders the canonical pitch name
func (p Pitch) Name() string {
	li, acc, octave, _ := spell(p.value)
	var b strings.Builder
	b.WriteByte(diatonic[li].name)
	b.WriteString(accidentalString(acc, "#", "b"))
	b.WriteString(strconv.Itoa(octave))
	return b.String()
}

func (p Pitch) String() string {
	return p.Name()
}

// Add transposes the pitch by an interval
func (p Pitch) Add(i Interval) (Pitch, error) {
	r, err := NewPitch(p.value + i.value)
	if err != nil {
		return Pitch{}, errors.Wrapf(err, "%s %s", p, i)
	}
	return r, nil
}

// Subtract transposes the pitch by the negation of an interval
func (p Pitch) Subtract(i Interval) (Pitch, error) {
	return p.Add(i.Negate())
}

// Interval returns the interval leading from p to q. Equal pitches give the
// ascending perfect unison
func (p Pitch) Interval(q Pitch) (Interval, error) {
	i, err := NewInterval(q.value - p.value)
	if err != nil {
		return Interval{}, errors.Wrapf(err, "from %s to %s", p, q)
	}
	return i, nil
}

// Difference returns p - q, the interval leading from q to p
func (p Pitch) Difference(q Pitch) (Interval, error) {
	return q.Interval(p)
}

// Inverted reflects the pitch through an axis pitch
func (p Pitch) Inverted(axis Pitch) (Pitch, error) {
	r, err := NewPitch(2*axis.value - p.value)
	if err != nil {
		return Pitch{}, errors.Wrapf(err, "%s inverted around %s", p, axis)
	}
	return r, nil
}

// Compare returns -1, 0 or +1 ordering by base-40 number
func (p Pitch) Compare(q Pitch) int {
	switch {
	case p.value < q.value:
		return -1
	case p.value > q.value:
		return 1
	}
	return 0
}

// Equal reports whether both pitches have the same spelling
func (p Pitch) Equal(q Pitch) bool {
	return p.value == q.value
}

// Less reports whether p sorts below q
func (p Pitch) Less(q Pitch) bool {
	return p.value < q.value
}

// MarshalText implements encoding.TextMarshaler
func (p Pitch) MarshalText() ([]byte, error) {
	return []byte(p.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Pitch) UnmarshalText(text []byte) error {
	r, err := ParsePitch(string(text))
	if err != nil {
		return err
	}
	*p = r
	return nil
}

func accidentalString(acc int, sharp, flat string) string {
	if acc < 0 {
		return strings.Repeat(flat, -acc)
	}
	return strings.Repeat(sharp, acc)
}

// maxNumber bounds octave and interval-number tokens so that scaling them
// by Octave cannot overflow
const maxNumber = math.MaxInt/Octave - 1

// parseNumber accepts only the canonical decimal form of an integer, at
// most maxNumber in magnitude, so that every accepted name renders back
// unchanged
func parseNumber(tok string, signed bool) (int, bool) {
	s := tok
	neg := false
	if signed && strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" || (len(s) > 1 && s[0] == '0') || (neg && s == "0") {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > maxNumber {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
