package midiout

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/oisee/fortytracker/pkg/base40"
)

func TestNoteOn(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.NoteOn(0, base40.MustPitch("C4"), 90); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Bytes(), []byte{0x90, 0x3C, 0x5A}; !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
	if !w.Running(0, 60) {
		t.Error("C4 should be running")
	}

	buf.Reset()
	if err := w.NoteOn(3, base40.MustPitch("A4"), 100); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Bytes(), []byte{0x93, 0x45, 0x64}; !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestConsolidation(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	c4 := base40.MustPitch("C4")

	if err := w.NoteOff(0, c4); !errors.Is(err, ErrNoteNotRunning) {
		t.Errorf("stray off: expected ErrNoteNotRunning, got %v", err)
	}
	if err := w.NoteOn(0, c4, 64); err != nil {
		t.Fatal(err)
	}
	if err := w.NoteOn(0, base40.MustPitch("B#3"), 64); !errors.Is(err, ErrNoteRunning) {
		t.Errorf("enharmonic double on: expected ErrNoteRunning, got %v", err)
	}
	if err := w.NoteOn(1, c4, 64); err != nil {
		t.Errorf("other channel should be free: %v", err)
	}

	buf.Reset()
	if err := w.NoteOff(0, base40.MustPitch("Dbb4")); err != nil {
		t.Fatal(err)
	}
	if b := buf.Bytes(); len(b) != 3 || b[0]&0x0F != 0 || b[1] != 0x3C {
		t.Errorf("note off bytes % X", b)
	}
	if w.Running(0, 60) {
		t.Error("C4 still running")
	}
}

func TestRangeErrors(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.NoteOn(16, base40.MustPitch("C4"), 64); !errors.Is(err, ErrBadChannel) {
		t.Errorf("expected ErrBadChannel, got %v", err)
	}
	if err := w.NoteOn(0, base40.MustPitch("Cb-1"), 64); !errors.Is(err, base40.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := w.NoteOn(0, base40.MustPitch("G#9"), 64); !errors.Is(err, base40.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestAllOffAndHandler(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	h := w.NoteHandler(80)
	h(0, base40.MustPitch("E4"), true)
	h(17, base40.MustPitch("G4"), true)
	if !w.Running(0, 64) || !w.Running(1, 67) {
		t.Fatal("handler did not start notes")
	}
	h(0, base40.MustPitch("E4"), true) // logged and dropped

	if err := w.AllOff(); err != nil {
		t.Fatal(err)
	}
	if w.Running(0, 64) || w.Running(1, 67) {
		t.Error("notes still running after AllOff")
	}
}

type flakyWriter struct {
	fail bool
	buf  bytes.Buffer
}

func (f *flakyWriter) Write(p []byte) (int, error) {
	if f.fail {
		return 0, errors.New("device gone")
	}
	return f.buf.Write(p)
}

func TestFailedWriteKeepsState(t *testing.T) {
	dest := &flakyWriter{fail: true}
	w := NewWriter(dest)
	e4 := base40.MustPitch("E4")

	if err := w.NoteOn(0, e4, 64); err == nil {
		t.Fatal("expected write error")
	}
	if w.Running(0, 64) {
		t.Fatal("failed note on marked running")
	}

	dest.fail = false
	if err := w.NoteOn(0, e4, 64); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}

	dest.fail = true
	if err := w.NoteOff(0, e4); err == nil {
		t.Fatal("expected write error")
	}
	if err := w.AllOff(); err == nil {
		t.Fatal("expected write error")
	}
	if !w.Running(0, 64) {
		t.Error("failed note off cleared running state")
	}

	dest.fail = false
	if err := w.AllOff(); err != nil || w.Running(0, 64) {
		t.Errorf("AllOff after recovery: err %v, running %v", err, w.Running(0, 64))
	}
}
