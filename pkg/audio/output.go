package audio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/oisee/fortytracker/pkg/tracker"
)

const chunkSize = 4096

// AudioReader is an io.Reader of 16-bit mono PCM rendered by a player
type AudioReader struct {
	player *Player
	buffer []float64
	pos    int
}

// NewAudioReader streams a player's output; the player should already be
// set up, since reading drives playback
func NewAudioReader(player *Player) *AudioReader {
	return &AudioReader{
		player: player,
		buffer: make([]float64, chunkSize),
		pos:    chunkSize,
	}
}

// Read implements io.Reader
func (ar *AudioReader) Read(p []byte) (n int, err error) {
	for n+2 <= len(p) {
		if ar.pos >= len(ar.buffer) {
			ar.player.GenerateSamples(ar.buffer)
			ar.pos = 0
		}
		binary.LittleEndian.PutUint16(p[n:], uint16(toPCM16(ar.buffer[ar.pos])))
		ar.pos++
		n += 2
	}
	return n, nil
}

func toPCM16(s float64) int16 {
	return int16(math.Max(-1, math.Min(1, s)) * 32767)
}

// WAVWriter writes 16-bit PCM in a RIFF container
type WAVWriter struct {
	out   io.Writer
	rate  int
	chans int
}

func NewWAVWriter(w io.Writer, sampleRate, channels int) *WAVWriter {
	return &WAVWriter{out: w, rate: sampleRate, chans: channels}
}

// WriteHeader writes the 44-byte RIFF header for dataSize bytes of PCM
func (w *WAVWriter) WriteHeader(dataSize int) error {
	le := binary.LittleEndian
	hdr := make([]byte, 44)
	copy(hdr[0:], "RIFF")
	le.PutUint32(hdr[4:], uint32(dataSize+36))
	copy(hdr[8:], "WAVE")
	copy(hdr[12:], "fmt ")
	le.PutUint32(hdr[16:], 16)
	le.PutUint16(hdr[20:], 1) // PCM
	le.PutUint16(hdr[22:], uint16(w.chans))
	le.PutUint32(hdr[24:], uint32(w.rate))
	le.PutUint32(hdr[28:], uint32(w.rate*w.chans*2))
	le.PutUint16(hdr[32:], uint16(w.chans*2))
	le.PutUint16(hdr[34:], 16)
	copy(hdr[36:], "data")
	le.PutUint32(hdr[40:], uint32(dataSize))

	_, err := w.out.Write(hdr)
	return errors.Wrap(err, "writing wav header")
}

// WriteSamples clips samples to [-1,1] and appends them
func (w *WAVWriter) WriteSamples(samples []float64) error {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(toPCM16(s)))
	}
	_, err := w.out.Write(buf)
	return errors.Wrap(err, "writing wav samples")
}

// SongDuration is the length in seconds of one pass through the order list
func SongDuration(song *tracker.Song) float64 {
	rows := 0
	for _, idx := range song.Order {
		if int(idx) < len(song.Patterns) {
			rows += song.Patterns[idx].Rows
		}
	}
	ticksPerSecond := float64(song.Tempo) * 2.0 / 5.0
	if ticksPerSecond == 0 {
		return 0
	}
	return float64(rows) * float64(song.Speed) / ticksPerSecond
}

// ExportWAV renders the song from the top as 16-bit mono WAV
func ExportWAV(player *Player, w io.Writer, seconds float64) error {
	left := int(seconds * float64(player.SampleRate))
	wav := NewWAVWriter(w, player.SampleRate, 1)
	if err := wav.WriteHeader(2 * left); err != nil {
		return err
	}

	player.SetPosition(0, 0)
	player.Play()
	defer player.Stop()

	chunk := make([]float64, chunkSize)
	for left > 0 {
		chunk = chunk[:min(left, chunkSize)]
		player.GenerateSamples(chunk)
		if err := wav.WriteSamples(chunk); err != nil {
			return err
		}
		left -= len(chunk)
	}
	return nil
}
