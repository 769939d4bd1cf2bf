package base40

import (
	"testing"

	"github.com/pkg/errors"
)

func TestMIDI(t *testing.T) {
	tests := []struct {
		name string
		midi uint8
	}{
		{"A4", 69},
		{"C4", 60},
		{"B#3", 60},
		{"Dbb4", 60},
		{"Cb6", 83},
		{"C-1", 0},
		{"G9", 127},
		{"F##2", 43},
	}
	for _, tt := range tests {
		n, err := MustPitch(tt.name).MIDI()
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if n != tt.midi {
			t.Errorf("%s: MIDI %d, want %d", tt.name, n, tt.midi)
		}
	}
}

func TestMIDIOutOfRange(t *testing.T) {
	for _, name := range []string{"Cb-1", "G#9", "C10", "A-3"} {
		if _, err := MustPitch(name).MIDI(); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: expected ErrOutOfRange, got %v", name, err)
		}
	}
	if s := MustPitch("Cb-1").Semitone(); s != -1 {
		t.Errorf("Cb-1 semitone = %d", s)
	}
}

func TestLilyPond(t *testing.T) {
	tests := map[string]string{
		"C4":   "c'",
		"C3":   "c",
		"Gb2":  "ges,",
		"Cb2":  "ces,",
		"F##5": "fisis''",
		"Bbb1": "beses,,",
		"Eb4":  "ees'",
		"A#3":  "ais",
	}
	for name, want := range tests {
		if got := MustPitch(name).LilyPond(); got != want {
			t.Errorf("%s: got %q, want %q", name, got, want)
		}
	}
}
