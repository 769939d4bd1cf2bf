// Command forty is a calculator for spelled pitches and intervals
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oisee/fortytracker/pkg/audio"
	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/format"
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	resultStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

const usage = `usage: forty [-v] COMMAND ARGS

  pitch NAME...               describe pitches
  interval FROM TO            interval from one pitch to another
  add PITCH INTERVAL          pitch above (or below) by an interval
  sub PITCH INTERVAL          pitch minus an interval
  invert PITCH AXIS           mirror a pitch around an axis
  invert INTERVAL             complement of an interval within the octave
  combine INTERVAL INTERVAL   sum of two intervals
  export SONG.yaml OUT.wav    render a song to 16-bit mono WAV
`

func main() {
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(flag.Args(), os.Stdout); err != nil {
		logrus.WithError(err).Error("forty failed")
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("no command given\n" + usage)
	}
	cmd, args := args[0], args[1:]
	logrus.WithFields(logrus.Fields{"command": cmd, "args": args}).Debug("running")

	want := func(n int) error {
		if len(args) != n {
			return errors.Errorf("%s takes %d arguments, got %d", cmd, n, len(args))
		}
		return nil
	}

	switch cmd {
	case "pitch":
		if len(args) == 0 {
			return errors.New("pitch needs at least one name")
		}
		for _, name := range args {
			p, err := base40.ParsePitch(name)
			if err != nil {
				return err
			}
			describePitch(out, p)
		}
		return nil

	case "interval":
		if err := want(2); err != nil {
			return err
		}
		from, to, err := twoPitches(args)
		if err != nil {
			return err
		}
		i, err := from.Interval(to)
		if err != nil {
			return err
		}
		describeInterval(out, i)
		return nil

	case "add", "sub":
		if err := want(2); err != nil {
			return err
		}
		p, err := base40.ParsePitch(args[0])
		if err != nil {
			return err
		}
		i, err := base40.ParseInterval(args[1])
		if err != nil {
			return err
		}
		if cmd == "sub" {
			p, err = p.Subtract(i)
		} else {
			p, err = p.Add(i)
		}
		if err != nil {
			return err
		}
		describePitch(out, p)
		return nil

	case "invert":
		if len(args) == 1 {
			i, err := base40.ParseInterval(args[0])
			if err != nil {
				return err
			}
			describeInterval(out, i.Inverted())
			return nil
		}
		if err := want(2); err != nil {
			return err
		}
		p, axis, err := twoPitches(args)
		if err != nil {
			return err
		}
		r, err := p.Inverted(axis)
		if err != nil {
			return err
		}
		describePitch(out, r)
		return nil

	case "combine":
		if err := want(2); err != nil {
			return err
		}
		a, err := base40.ParseInterval(args[0])
		if err != nil {
			return err
		}
		b, err := base40.ParseInterval(args[1])
		if err != nil {
			return err
		}
		sum, err := a.Add(b)
		if err != nil {
			return err
		}
		describeInterval(out, sum)
		return nil

	case "export":
		return export(args, out)
	}
	return errors.Errorf("unknown command %q\n%s", cmd, usage)
}

func twoPitches(args []string) (base40.Pitch, base40.Pitch, error) {
	a, err := base40.ParsePitch(args[0])
	if err != nil {
		return a, a, err
	}
	b, err := base40.ParsePitch(args[1])
	return a, b, err
}

func field(name, value string) string {
	return labelStyle.Render(name+" ") + value
}

func describePitch(out io.Writer, p base40.Pitch) {
	midi := "--"
	if n, err := p.MIDI(); err == nil {
		midi = strconv.Itoa(int(n))
	}
	fmt.Fprintln(out, strings.Join([]string{
		resultStyle.Render(fmt.Sprintf("%-5s", p.Name())),
		field("base40", strconv.Itoa(p.Value())),
		field("midi", midi),
		field("lilypond", p.LilyPond()),
	}, "  "))
}

func describeInterval(out io.Writer, i base40.Interval) {
	parts := []string{
		resultStyle.Render(fmt.Sprintf("%-5s", i.Name())),
		field("base40", strconv.Itoa(i.Value())),
		field("quality", i.Quality().String()),
	}
	if c := i.Compound(); c.Octave > 0 {
		rest := strconv.Itoa(c.Simple)
		if s, err := base40.NewInterval(c.Simple); err == nil {
			rest = s.Name()[1:]
		}
		parts = append(parts, field("compound", fmt.Sprintf("%d octave(s) + %s", c.Octave, rest)))
	}
	fmt.Fprintln(out, strings.Join(parts, "  "))
}

func export(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	seconds := fs.Float64("seconds", 0, "Length to render (default: one pass through the order list)")
	lenient := fs.Bool("lenient", false, "Skip pattern cells that fail to parse")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("export takes SONG.yaml OUT.wav")
	}

	in, err := os.Open(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "opening song")
	}
	defer in.Close()
	load := format.Load
	if *lenient {
		load = format.LoadLenient
	}
	song, err := load(in)
	if err != nil {
		return errors.Wrapf(err, "loading %s", fs.Arg(0))
	}

	dur := *seconds
	if dur <= 0 {
		dur = audio.SongDuration(song)
	}
	f, err := os.Create(fs.Arg(1))
	if err != nil {
		return errors.Wrap(err, "creating wav")
	}
	if err := audio.ExportWAV(audio.NewPlayer(song), f, dur); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing wav")
	}
	fmt.Fprintln(out, field("wrote", fmt.Sprintf("%s (%.1fs)", fs.Arg(1), dur)))
	return nil
}
