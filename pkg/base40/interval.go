package base40

import (
	"strconv"

	"github.com/pkg/errors"
)

// Sign is the direction of an interval
type Sign int

const (
	Ascending  Sign = 1  // upward, and the unison
	Descending Sign = -1 // downward
)

func (s Sign) String() string {
	if s == Descending {
		return "-"
	}
	return "+"
}

// Quality of an interval
type Quality int

// Qualities in ascending order of size for a given number
const (
	Diminished Quality = iota
	Minor
	Perfect
	Major
	Augmented
)

var qualityLetters = [...]byte{'d', 'm', 'P', 'M', 'A'}
var qualityNames = [...]string{"diminished", "minor", "perfect", "major", "augmented"}

// Letter returns the letter used in interval names
func (q Quality) Letter() byte {
	return qualityLetters[q]
}

func (q Quality) String() string {
	return qualityNames[q]
}

func qualityFromLetter(b byte) (Quality, bool) {
	for i, l := range qualityLetters {
		if l == b {
			return Quality(i), true
		}
	}
	return 0, false
}

// Interval is a signed distance between two spelled pitches in base-40
// units. A minor third is 11, a perfect fifth 23, an octave 40
type Interval struct {
	value int
}

// CompoundInterval splits an interval magnitude into whole octaves and the
// remaining simple part
type CompoundInterval struct {
	Octave int
	Simple int
}

// ParseInterval parses a name such as "+m3", "-P5" or "+M9": a mandatory
// sign, a quality letter (d m P M A) and a positive diatonic number
func ParseInterval(name string) (Interval, error) {
	if len(name) < 3 {
		return Interval{}, intervalError(name, ErrInvalidName, "too short")
	}
	var sign Sign
	switch name[0] {
	case '+':
		sign = Ascending
	case '-':
		sign = Descending
	default:
		return Interval{}, intervalError(name, ErrInvalidName, "sign must be + or -")
	}
	q, ok := qualityFromLetter(name[1])
	if !ok {
		return Interval{}, intervalError(name, ErrInvalidName, "quality must be one of d m P M A")
	}
	n, ok := parseNumber(name[2:], false)
	if !ok || n < 1 {
		return Interval{}, intervalError(name, ErrInvalidName, "number must be a positive integer of modest size")
	}

	octaves, class := (n-1)/7, (n-1)%7
	c := classes[class]
	off, ok := c.offsets[q]
	magnitude := c.reference + off + octaves*Octave
	if !ok || magnitude < 0 {
		return Interval{}, intervalError(name, ErrInvalidPairing, q.String()+" "+strconv.Itoa(n))
	}
	if magnitude == 0 && sign == Descending {
		return Interval{}, intervalError(name, ErrInvalidName, "unison has no direction")
	}
	return Interval{value: int(sign) * magnitude}, nil
}

// NewInterval wraps a signed base-40 distance. Distances that fall between
// the diminished and augmented forms of every number are rejected with
// ErrUnrepresentable
func NewInterval(value int) (Interval, error) {
	if _, _, ok := classify(value); !ok {
		return Interval{}, errors.Wrapf(ErrUnrepresentable, "interval value %d", value)
	}
	return Interval{value: value}, nil
}

// MustInterval is like ParseInterval but panics on error
func MustInterval(name string) Interval {
	i, err := ParseInterval(name)
	if err != nil {
		panic(err)
	}
	return i
}

// classify finds quality and diatonic number for a signed distance
func classify(value int) (Quality, int, bool) {
	magnitude := abs(value)
	octaves, slot := magnitude/Octave, magnitude%Octave
	for ci, c := range classes {
		for q, off := range c.offsets {
			if c.reference+off == slot {
				return q, ci + 1 + 7*octaves, true
			}
		}
	}
	// Only the diminished octave reaches back below the next unison
	if slot == Octave+perfectOffsets[Diminished] {
		return Diminished, 8 + 7*octaves, true
	}
	return 0, 0, false
}

// Value returns the signed base-40 distance
func (i Interval) Value() int {
	return i.value
}

// Sign returns the direction. The unison counts as ascending
func (i Interval) Sign() Sign {
	if i.value < 0 {
		return Descending
	}
	return Ascending
}

// Quality returns the interval quality
func (i Interval) Quality() Quality {
	q, _, _ := classify(i.value)
	return q
}

// Number returns the diatonic number: 1 for a unison, 3 for a third,
// 9 for a ninth
func (i Interval) Number() int {
	_, n, _ := classify(i.value)
	return n
}

// Name renders the canonical interval name
func (i Interval) Name() string {
	q, n, _ := classify(i.value)
	return i.Sign().String() + string(q.Letter()) + strconv.Itoa(n)
}

func (i Interval) String() string {
	return i.Name()
}

// Add sums two intervals
func (i Interval) Add(j Interval) (Interval, error) {
	r, err := NewInterval(i.value + j.value)
	if err != nil {
		return Interval{}, errors.Wrapf(err, "%s + %s", i, j)
	}
	return r, nil
}

// Subtract returns i - j
func (i Interval) Subtract(j Interval) (Interval, error) {
	r, err := NewInterval(i.value - j.value)
	if err != nil {
		return Interval{}, errors.Wrapf(err, "%s - %s", i, j)
	}
	return r, nil
}

// Negate flips the direction
func (i Interval) Negate() Interval {
	return Interval{value: -i.value}
}

// Inverted returns the octave complement in the opposite direction:
// +P5 becomes -P4, +M3 becomes -m6. Only the simple remainder is inverted
// and whole octaves are kept, so +M9 becomes -m14 and +P8 becomes -P15
func (i Interval) Inverted() Interval {
	m := abs(i.value)
	o, s := m/Octave, m%Octave
	r := o*Octave + Octave - s
	if i.value >= 0 {
		r = -r
	}
	// representable slots mirror around half an octave, so r always spells
	return Interval{value: r}
}

// Compound splits the magnitude into octaves and a simple remainder
func (i Interval) Compound() CompoundInterval {
	m := abs(i.value)
	return CompoundInterval{Octave: m / Octave, Simple: m % Octave}
}

// IsSimple reports whether the interval is smaller than an octave
func (i Interval) IsSimple() bool {
	return abs(i.value) < Octave
}

// Compare returns -1, 0 or +1 ordering by signed distance
func (i Interval) Compare(j Interval) int {
	switch {
	case i.value < j.value:
		return -1
	case i.value > j.value:
		return 1
	}
	return 0
}

// Equal reports whether both intervals have the same signed distance
func (i Interval) Equal(j Interval) bool {
	return i.value == j.value
}

// Less reports whether i sorts below j
func (i Interval) Less(j Interval) bool {
	return i.value < j.value
}

// MarshalText implements encoding.TextMarshaler
func (i Interval) MarshalText() ([]byte, error) {
	return []byte(i.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Interval) UnmarshalText(text []byte) error {
	r, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = r
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
