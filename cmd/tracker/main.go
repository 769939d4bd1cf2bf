package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/oisee/fortytracker/pkg/audio"
	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/format"
	"github.com/oisee/fortytracker/pkg/midiout"
	"github.com/oisee/fortytracker/pkg/tracker"
	"github.com/oisee/fortytracker/pkg/tui"
)

func main() {
	os.Exit(run())
}

// run returns the exit code once every deferred cleanup has run, so MIDI
// notes are released and the audio device closed on failure too
func run() int {
	channels := flag.Int("channels", 6, "Number of channels (1-16)")
	midiPath := flag.String("midi", "", "Write note events as raw MIDI to this file or device")
	logPath := flag.String("log", "", "Log file (logging is off while the editor runs otherwise)")
	verbose := flag.Bool("v", false, "Debug logging")
	silent := flag.Bool("silent", false, "Run without an audio device")
	lenient := flag.Bool("lenient", false, "Skip pattern cells that fail to parse")
	flag.Parse()

	logrus.SetOutput(io.Discard)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *logPath != "" {
		lf, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			return 1
		}
		defer lf.Close()
		logrus.SetOutput(lf)
	}

	var song *tracker.Song
	var filename string

	if flag.NArg() > 0 {
		filename = flag.Arg(0)
		var err error
		song, err = loadSong(filename, *lenient)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading file: %v\n", err)
			return 1
		}
		logrus.WithFields(logrus.Fields{"title": song.Title, "channels": song.Channels}).Info("song loaded")
	} else {
		song = demoSong(min(max(*channels, 1), format.MaxChannels))
	}

	model := tui.NewModel(song, filename)

	if *midiPath != "" {
		mf, err := openMIDI(*midiPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening MIDI output: %v\n", err)
			return 1
		}
		defer mf.Close()
		mw := midiout.NewWriter(mf)
		defer func() {
			if err := mw.AllOff(); err != nil {
				logrus.WithError(err).Warn("releasing midi notes")
			}
		}()
		model.Player.Callbacks.OnNote = mw.NoteHandler(100)
	}

	if *silent {
		model.Clocked = true
	} else {
		rt, err := audio.NewRealtimeOutput(model.Player)
		if err != nil {
			logrus.WithError(err).Warn("no audio device, playback is silent")
			model.Clocked = true
		} else {
			defer rt.Close()
		}
	}

	if _, err := tea.NewProgram(model).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// openMIDI opens a MIDI target for writing, dropping any earlier contents
func openMIDI(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

func loadSong(filename string, lenient bool) (*tracker.Song, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if lenient {
		return format.LoadLenient(f)
	}
	return format.Load(f)
}

// demoSong seeds a new song with a short spelled progression
func demoSong(channels int) *tracker.Song {
	song := tracker.NewSong(channels)
	song.Title = "New Song"
	pat := song.Patterns[0]
	put := func(row, ch int, name string, inst uint8) {
		if ch < channels {
			pat.Notes[row][ch] = tracker.On(base40.MustPitch(name), inst)
		}
	}
	put(0, 0, "C4", 1)
	put(4, 0, "Eb4", 1)
	put(8, 0, "G4", 1)
	put(12, 0, "Bb4", 1)
	put(16, 0, "Ab4", 1)
	put(20, 0, "F#4", 1)
	put(24, 0, "G4", 1)
	put(0, 1, "C2", 2)
	put(16, 1, "Ab1", 2)
	put(24, 1, "G1", 2)
	for row := 0; row < 64; row += 16 {
		put(row, 4, "C2", 4)
	}
	return song
}
