package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/oisee/fortytracker/pkg/base40"
)

func TestCommands(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"pitch", "C4", "Eb4"}, []string{"C4", "163", "60", "c'", "Eb4", "174", "63", "ees'"}},
		{[]string{"interval", "C4", "G4"}, []string{"+P5", "23", "perfect"}},
		{[]string{"interval", "E4", "C4"}, []string{"-M3", "-12", "major"}},
		{[]string{"interval", "C4", "D5"}, []string{"+M9", "compound", "1 octave(s) + M2"}},
		{[]string{"add", "D4", "+m3"}, []string{"F4"}},
		{[]string{"sub", "D4", "+m3"}, []string{"B3"}},
		{[]string{"invert", "E4", "C4"}, []string{"Ab3"}},
		{[]string{"invert", "+P5"}, []string{"-P4"}},
		{[]string{"combine", "+M3", "+m3"}, []string{"+P5"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.args, &out); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output %q lacks %q", out.String(), w)
				}
			}
		})
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		args []string
		kind error
	}{
		{[]string{"pitch", "H4"}, base40.ErrInvalidName},
		{[]string{"add", "C##4", "+A1"}, base40.ErrUnrepresentable},
		{[]string{"combine", "+A7", "+A7"}, base40.ErrUnrepresentable},
		{[]string{"interval", "C4"}, nil},
		{[]string{"frobnicate"}, nil},
		{nil, nil},
	}
	for _, tt := range tests {
		err := run(tt.args, &bytes.Buffer{})
		if err == nil {
			t.Errorf("%v: expected an error", tt.args)
			continue
		}
		if tt.kind != nil && !errors.Is(err, tt.kind) {
			t.Errorf("%v: expected %v, got %v", tt.args, tt.kind, err)
		}
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "song.yaml")
	wav := filepath.Join(dir, "out.wav")
	doc := `
title: Test
speed: 2
tempo: 125
sample_rate: 8000
channels: 1
patterns:
  - rows: 4
    notes:
      - {row: 0, channel: 1, note: F#4, instrument: 1}
order: [0]
`
	if err := os.WriteFile(song, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run([]string{"export", song, wav}, &out); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(wav)
	if err != nil {
		t.Fatal(err)
	}
	// 4 rows * 2 ticks at 50 ticks/s = 0.16s = 1280 samples
	if info.Size() != 44+2*1280 {
		t.Errorf("wav size %d", info.Size())
	}
}
