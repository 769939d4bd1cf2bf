package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oisee/fortytracker/pkg/format"
	"github.com/oisee/fortytracker/pkg/tracker"
)

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) []tea.KeyMsg {
	var keys []tea.KeyMsg
	for _, r := range s {
		keys = append(keys, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return keys
}

var up = tea.KeyMsg{Type: tea.KeyUp}

func cellText(m Model, row int) string {
	return strings.TrimSpace(tracker.NoteToString(m.currentPattern().Notes[row][0]))
}

func TestNoteEntryAndAccidentals(t *testing.T) {
	m := NewModel(tracker.NewSong(2), "")
	m = press(m, runes("ce")...)
	m = press(m, up)
	m = press(m, runes("-")...)

	if got := cellText(m, 0); got != "C4" {
		t.Errorf("row 0 = %s", got)
	}
	if got := cellText(m, 1); got != "Eb4" {
		t.Errorf("row 1 = %s", got)
	}
	info := m.noteInfoView()
	for _, want := range []string{"Eb4", "174", "63", "ees'", "+m3"} {
		if !strings.Contains(info, want) {
			t.Errorf("note info %q lacks %q", info, want)
		}
	}

	m = press(m, runes("---")...)
	if got := cellText(m, 1); got != "Ebb4" {
		t.Errorf("accidentals should stop at two flats, got %s", got)
	}
	if m.StatusMsg == "" {
		t.Error("expected a status message for the refused accidental")
	}
}

func TestTransposeAndInvert(t *testing.T) {
	m := NewModel(tracker.NewSong(1), "")
	m = press(m, runes("ce")...)
	m = press(m, up)
	m = press(m, runes("-")...)

	m = press(m, runes("t")...) // +M3
	if a, b := cellText(m, 0), cellText(m, 1); a != "E4" || b != "G4" {
		t.Fatalf("after transpose: %s %s", a, b)
	}
	m = press(m, runes("T")...)
	if a, b := cellText(m, 0), cellText(m, 1); a != "C4" || b != "Eb4" {
		t.Fatalf("after transpose down: %s %s", a, b)
	}

	m = press(m, runes("i")...) // around Eb4
	if a, b := cellText(m, 0), cellText(m, 1); a != "Gb4" || b != "Eb4" {
		t.Errorf("after invert: %s %s", a, b)
	}

	m = press(m, runes("]]")...)
	if transposeSteps[m.Step] != "+A4" {
		t.Errorf("step = %s", transposeSteps[m.Step])
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.yaml")
	m := NewModel(tracker.NewSong(1), path)
	m = press(m, runes("g=")...)
	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("%v (status %q)", err, m.StatusMsg)
	}
	defer f.Close()
	song, err := format.Load(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(tracker.NoteToString(song.Patterns[0].Notes[0][0])); got != "G4" {
		t.Errorf("saved row 0 = %s", got)
	}
}
