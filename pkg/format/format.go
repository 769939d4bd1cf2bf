// Package format reads and writes songs as YAML documents
package format

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/tracker"
)

// MaxChannels bounds the channel count of a loaded song
const MaxChannels = 16

type songDoc struct {
	Title       string          `yaml:"title"`
	Author      string          `yaml:"author,omitempty"`
	Speed       uint8           `yaml:"speed"`
	Tempo       uint8           `yaml:"tempo"`
	SampleRate  int             `yaml:"sample_rate,omitempty"`
	Channels    int             `yaml:"channels"`
	ChanConfig  []channelDoc    `yaml:"channel_config,omitempty"`
	Instruments []instrumentDoc `yaml:"instruments,omitempty"`
	Ornaments   []ornamentDoc   `yaml:"ornaments,omitempty"`
	Patterns    []patternDoc    `yaml:"patterns"`
	Order       []uint8         `yaml:"order"`
}

type channelDoc struct {
	Name      string `yaml:"name"`
	Generator string `yaml:"generator"`
	Volume    uint8  `yaml:"volume"`
	Muted     bool   `yaml:"muted,omitempty"`
}

type instrumentDoc struct {
	Name      string      `yaml:"name"`
	Generator string      `yaml:"generator"`
	Volume    uint8       `yaml:"volume"`
	Duty      uint8       `yaml:"duty,omitempty"`
	Ornament  uint8       `yaml:"ornament,omitempty"`
	Envelope  envelopeDoc `yaml:"envelope"`
}

type envelopeDoc struct {
	Attack  uint8 `yaml:"attack"`
	Decay   uint8 `yaml:"decay"`
	Sustain uint8 `yaml:"sustain"`
	Release uint8 `yaml:"release"`
}

type ornamentDoc struct {
	Name  string            `yaml:"name"`
	Loop  int8              `yaml:"loop"`
	Steps []base40.Interval `yaml:"steps,flow"`
}

type patternDoc struct {
	Rows  int       `yaml:"rows"`
	Notes []cellDoc `yaml:"notes"`
}

type cellDoc struct {
	Row        int    `yaml:"row"`
	Channel    int    `yaml:"channel"`
	Note       string `yaml:"note"`
	Instrument uint8  `yaml:"instrument,omitempty"`
	Volume     *int8  `yaml:"volume,omitempty"`
}

// Load reads a song, failing on the first bad cell
func Load(r io.Reader) (*tracker.Song, error) {
	return load(r, false)
}

// LoadLenient reads a song, skipping cells whose note cannot be parsed
func LoadLenient(r io.Reader) (*tracker.Song, error) {
	return load(r, true)
}

func load(r io.Reader, lenient bool) (*tracker.Song, error) {
	var doc songDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding song")
	}
	if doc.Channels < 1 || doc.Channels > MaxChannels {
		return nil, errors.Errorf("channels must be 1-%d, got %d", MaxChannels, doc.Channels)
	}

	song := tracker.NewSong(doc.Channels)
	song.Title = doc.Title
	song.Author = doc.Author
	if doc.Speed > 0 {
		song.Speed = doc.Speed
	}
	if doc.Tempo > 0 {
		song.Tempo = doc.Tempo
	}
	if doc.SampleRate > 0 {
		song.SampleRate = doc.SampleRate
	}

	for i, cd := range doc.ChanConfig {
		if i >= song.Channels {
			return nil, errors.Errorf("channel_config has %d entries for %d channels", len(doc.ChanConfig), song.Channels)
		}
		gen, ok := tracker.ParseGenerator(cd.Generator)
		if !ok {
			return nil, errors.Errorf("channel %d: unknown generator %q", i+1, cd.Generator)
		}
		song.ChanConfig[i] = tracker.ChannelConfig{Name: cd.Name, Generator: gen, Volume: cd.Volume, Muted: cd.Muted}
	}

	if len(doc.Instruments) > 0 {
		song.Instruments = song.Instruments[:0]
		for i, id := range doc.Instruments {
			gen, ok := tracker.ParseGenerator(id.Generator)
			if !ok {
				return nil, errors.Errorf("instrument %d: unknown generator %q", i+1, id.Generator)
			}
			song.Instruments = append(song.Instruments, tracker.Instrument{
				Name:      id.Name,
				Generator: gen,
				Volume:    id.Volume,
				Duty:      id.Duty,
				Ornament:  id.Ornament,
				Envelope: tracker.Envelope{
					Attack:  id.Envelope.Attack,
					Decay:   id.Envelope.Decay,
					Sustain: id.Envelope.Sustain,
					Release: id.Envelope.Release,
				},
			})
		}
	}

	if len(doc.Ornaments) > 0 {
		song.Ornaments = song.Ornaments[:0]
		for _, od := range doc.Ornaments {
			if len(od.Steps) == 0 {
				return nil, errors.Errorf("ornament %q has no steps", od.Name)
			}
			song.Ornaments = append(song.Ornaments, tracker.Ornament{Name: od.Name, Loop: od.Loop, Steps: od.Steps})
		}
	}

	if len(doc.Patterns) == 0 {
		return nil, errors.New("song has no patterns")
	}
	song.Patterns = song.Patterns[:0]
	for pi, pd := range doc.Patterns {
		pat, err := loadPattern(pd, song.Channels, lenient)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %d", pi)
		}
		song.Patterns = append(song.Patterns, pat)
	}

	if len(doc.Order) > 0 {
		song.Order = doc.Order
	}
	for pos, idx := range song.Order {
		if int(idx) >= len(song.Patterns) {
			return nil, errors.Errorf("order position %d refers to missing pattern %d", pos, idx)
		}
	}
	return song, nil
}

func loadPattern(pd patternDoc, channels int, lenient bool) (*tracker.Pattern, error) {
	if pd.Rows < 1 || pd.Rows > 256 {
		return nil, errors.Errorf("rows must be 1-256, got %d", pd.Rows)
	}
	pat := tracker.NewPattern(pd.Rows, channels)
	for _, cell := range pd.Notes {
		if cell.Row < 0 || cell.Row >= pd.Rows || cell.Channel < 1 || cell.Channel > channels {
			return nil, errors.Errorf("cell row %d channel %d outside pattern", cell.Row, cell.Channel)
		}
		n, err := tracker.StringToNote(cell.Note)
		if err != nil {
			if lenient {
				logrus.Warnf("skipping row %02X channel %d: %v", cell.Row, cell.Channel, err)
				continue
			}
			return nil, errors.Wrapf(err, "row %02X channel %d", cell.Row, cell.Channel)
		}
		n.Instrument = cell.Instrument
		if cell.Volume != nil {
			n.Volume = *cell.Volume
		}
		pat.Notes[cell.Row][cell.Channel-1] = n
	}
	return pat, nil
}

// Save writes a song; empty cells are left out
func Save(w io.Writer, song *tracker.Song) error {
	doc := songDoc{
		Title:      song.Title,
		Author:     song.Author,
		Speed:      song.Speed,
		Tempo:      song.Tempo,
		SampleRate: song.SampleRate,
		Channels:   song.Channels,
		Order:      song.Order,
	}
	for _, cc := range song.ChanConfig {
		doc.ChanConfig = append(doc.ChanConfig, channelDoc{Name: cc.Name, Generator: cc.Generator.String(), Volume: cc.Volume, Muted: cc.Muted})
	}
	for _, inst := range song.Instruments {
		doc.Instruments = append(doc.Instruments, instrumentDoc{
			Name:      inst.Name,
			Generator: inst.Generator.String(),
			Volume:    inst.Volume,
			Duty:      inst.Duty,
			Ornament:  inst.Ornament,
			Envelope: envelopeDoc{
				Attack:  inst.Envelope.Attack,
				Decay:   inst.Envelope.Decay,
				Sustain: inst.Envelope.Sustain,
				Release: inst.Envelope.Release,
			},
		})
	}
	for _, orn := range song.Ornaments {
		doc.Ornaments = append(doc.Ornaments, ornamentDoc{Name: orn.Name, Loop: orn.Loop, Steps: orn.Steps})
	}
	for _, pat := range song.Patterns {
		pd := patternDoc{Rows: pat.Rows}
		for row := range pat.Notes {
			for ch, n := range pat.Notes[row] {
				if n.Kind == tracker.NoteEmpty {
					continue
				}
				cell := cellDoc{Row: row, Channel: ch + 1, Note: noteText(n), Instrument: n.Instrument}
				if n.Volume >= 0 {
					v := n.Volume
					cell.Volume = &v
				}
				pd.Notes = append(pd.Notes, cell)
			}
		}
		doc.Patterns = append(doc.Patterns, pd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, "encoding song")
	}
	return enc.Close()
}

func noteText(n tracker.Note) string {
	if n.Kind == tracker.NoteOff {
		return "OFF"
	}
	return n.Pitch.Name()
}
