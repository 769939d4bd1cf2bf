package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/midiout"
)

func TestOpenMIDITruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mid")
	if err := os.WriteFile(path, []byte("stale bytes from an earlier session"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := openMIDI(path)
	if err != nil {
		t.Fatal(err)
	}
	mw := midiout.NewWriter(f)
	if err := mw.NoteOn(0, base40.MustPitch("C4"), 100); err != nil {
		t.Fatal(err)
	}
	if err := mw.AllOff(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x90, 0x3C, 0x64, 0x90, 0x3C, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestDemoSongSpelling(t *testing.T) {
	song := demoSong(6)
	if n := song.Patterns[0].Notes[20][0]; n.Pitch.Name() != "F#4" {
		t.Errorf("row 20 holds %s", n.Pitch)
	}
	if n := song.Patterns[0].Notes[16][1]; n.Pitch.Name() != "Ab1" {
		t.Errorf("bass row 16 holds %s", n.Pitch)
	}
	if small := demoSong(2); small.Channels != 2 {
		t.Errorf("demo song has %d channels", small.Channels)
	}
}
