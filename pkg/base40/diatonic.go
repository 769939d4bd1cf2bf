// Package base40 implements Hewlett's base-40 numbering of spelled pitches
// and intervals.
//
// Every spelling from double flat to double sharp gets its own integer, so
// D#4 and Eb4 stay distinct, while plain integer addition and subtraction
// still produce correctly named intervals and transpositions
package base40

// Octave is the number of base-40 slots in one octave
const Octave = 40

// MaxAccidentals bounds the accidental count in either direction
const MaxAccidentals = 2

// letter is one row of the diatonic table
type letter struct {
	name     byte
	slot     int // natural position inside the octave, 1..40
	step     int // slots to the next letter
	semitone int // chromatic pitch class of the natural
}

// diatonic is the single table both codecs and the MIDI conversion read.
// Steps sum to Octave and every natural keeps MaxAccidentals slots of
// headroom on both sides before a neighbour's range begins
var diatonic = [7]letter{
	{'C', 3, 6, 0},
	{'D', 9, 6, 2},
	{'E', 15, 5, 4},
	{'F', 20, 6, 5},
	{'G', 26, 6, 7},
	{'A', 32, 6, 9},
	{'B', 38, 5, 11},
}

// numberClass describes one diatonic interval number within an octave
type numberClass struct {
	reference int             // value of the perfect or major interval
	offsets   map[Quality]int // qualities allowed for the number
}

// Quality offsets from the reference interval of a number class
var (
	perfectOffsets   = map[Quality]int{Diminished: -1, Perfect: 0, Augmented: 1}
	imperfectOffsets = map[Quality]int{Diminished: -2, Minor: -1, Major: 0, Augmented: 1}
)

// classes is indexed by (number-1) mod 7 and derived from the diatonic steps.
// Unisons, fourths and fifths are perfect; the rest are major or minor
var classes = func() [7]numberClass {
	var c [7]numberClass
	ref := 0
	for i, l := range diatonic {
		c[i] = numberClass{reference: ref, offsets: imperfectOffsets}
		if i == 0 || i == 3 || i == 4 {
			c[i].offsets = perfectOffsets
		}
		ref += l.step
	}
	return c
}()

// letterIndex returns the table row for an uppercase letter
func letterIndex(b byte) (int, bool) {
	for i, l := range diatonic {
		if l.name == b {
			return i, true
		}
	}
	return 0, false
}

// floorDiv divides rounding toward negative infinity
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
