package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/tracker"
)

func TestPitchToFreq(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"A4", 440},
		{"A3", 220},
		{"C4", 261.6256},
		{"B#3", 261.6256},
		{"Bbb4", 440},
		{"E5", 659.2551},
	}
	for _, tt := range tests {
		got := PitchToFreq(base40.MustPitch(tt.name))
		if math.Abs(got-tt.freq) > 0.001 {
			t.Errorf("%s: got %.4f, want %.4f", tt.name, got, tt.freq)
		}
	}
}

func TestOscillatorRange(t *testing.T) {
	for _, gen := range []tracker.Generator{tracker.GenTriangle, tracker.GenSawtooth, tracker.GenSquare, tracker.GenNoise} {
		o := NewOscillator(gen, 44100)
		o.SetFrequency(440)
		for i := 0; i < 1000; i++ {
			if s := o.Sample(); s < -1 || s > 1 {
				t.Fatalf("%s: sample %d out of range: %f", gen, i, s)
			}
		}
	}
	if s := NewOscillator(tracker.GenSquare, 44100).Sample(); s != 0 {
		t.Errorf("silent oscillator produced %f", s)
	}
}

func TestOrnamentSteps(t *testing.T) {
	cs := NewChannelState(44100)
	cs.TriggerNote(base40.MustPitch("D4"), nil, 64)
	orn := tracker.DefaultOrnaments()[0] // +P1 +M3 +P5, loop 0
	want := []string{"D4", "F#4", "A4", "D4", "F#4"}
	for i, name := range want {
		cs.ProcessOrnament(&orn)
		if cs.Pitch.Name() != name {
			t.Errorf("tick %d: got %s, want %s", i, cs.Pitch, name)
		}
	}
}

func TestOrnamentFallback(t *testing.T) {
	cs := NewChannelState(44100)
	cs.TriggerNote(base40.MustPitch("C##3"), nil, 64)
	orn := tracker.Ornament{Name: "up", Loop: -1, Steps: []base40.Interval{
		base40.MustInterval("+P1"),
		base40.MustInterval("+A1"),
	}}
	cs.ProcessOrnament(&orn)
	cs.ProcessOrnament(&orn)
	if cs.Pitch.Name() != "C##3" {
		t.Errorf("unspellable step should sound the base pitch, got %s", cs.Pitch)
	}
	if cs.OrnPos != 1 {
		t.Errorf("loop -1 should hold the last step, pos %d", cs.OrnPos)
	}
}

type noteEvent struct {
	ch   int
	name string
	on   bool
}

func testSong() *tracker.Song {
	song := tracker.NewSong(2)
	song.Speed = 2
	song.Patterns[0] = tracker.NewPattern(4, 2)
	pat := song.Patterns[0]
	pat.Notes[0][0] = tracker.On(base40.MustPitch("C4"), 1)
	pat.Notes[1][0] = tracker.On(base40.MustPitch("Eb4"), 0)
	pat.Notes[2][0] = tracker.Off()
	pat.Notes[1][1] = tracker.On(base40.MustPitch("G3"), 2)
	return song
}

func TestPlayerNoteEvents(t *testing.T) {
	song := testSong()
	p := NewPlayer(song)
	var events []noteEvent
	var rows []int
	p.Callbacks.OnNote = func(ch int, pitch base40.Pitch, on bool) {
		events = append(events, noteEvent{ch, pitch.Name(), on})
	}
	p.Callbacks.OnRow = func(pos, pat, row int) {
		rows = append(rows, row)
	}

	p.Play()
	buf := make([]float64, p.TickSamples*int(song.Speed)*3)
	p.GenerateSamples(buf)
	p.Stop()

	want := []noteEvent{
		{0, "C4", true},
		{0, "C4", false},
		{0, "Eb4", true},
		{1, "G3", true},
		{0, "Eb4", false},
		{1, "G3", false},
	}
	if len(events) != len(want) {
		t.Fatalf("got events %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %v, want %v", i, events[i], want[i])
		}
	}
	if len(rows) < 3 || rows[0] != 0 || rows[1] != 1 || rows[2] != 2 {
		t.Errorf("rows %v", rows)
	}
}

func TestMutedChannelIsSilent(t *testing.T) {
	song := testSong()
	song.ChanConfig[0].Muted = true
	song.ChanConfig[1].Muted = true
	p := NewPlayer(song)
	var events int
	p.Callbacks.OnNote = func(int, base40.Pitch, bool) { events++ }
	p.Play()
	buf := make([]float64, 2048)
	p.GenerateSamples(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %f", i, s)
		}
	}
	if events != 0 {
		t.Errorf("muted channels reported %d note events", events)
	}
}

func TestExportWAV(t *testing.T) {
	song := testSong()
	song.SampleRate = 8000
	p := NewPlayer(song)
	var buf bytes.Buffer
	if err := ExportWAV(p, &buf, 0.5); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) != 44+8000 {
		t.Fatalf("wav length %d", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Errorf("bad header % X", b[:44])
	}
	if rate := binary.LittleEndian.Uint32(b[24:]); rate != 8000 {
		t.Errorf("sample rate %d", rate)
	}
	if size := binary.LittleEndian.Uint32(b[40:]); size != 8000 {
		t.Errorf("data size %d", size)
	}
	silent := true
	for _, v := range b[44:] {
		if v != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Error("rendered audio is silent")
	}
	if _, _, _, _, playing := p.GetPlaybackInfo(); playing {
		t.Error("player still playing after export")
	}
}

func TestSongDuration(t *testing.T) {
	song := testSong()
	song.Tempo = 125 // 50 ticks per second
	if got := SongDuration(song); math.Abs(got-4*2/50.0) > 1e-9 {
		t.Errorf("duration %f", got)
	}
}
