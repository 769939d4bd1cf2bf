package audio

import (
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RealtimeOutput plays a player through the system audio device
type RealtimeOutput struct {
	player    *Player
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	running   atomic.Bool
}

// NewRealtimeOutput opens the audio device and starts streaming
func NewRealtimeOutput(player *Player) (*RealtimeOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   player.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "opening audio device")
	}
	<-ready

	rt := &RealtimeOutput{
		player: player,
		otoCtx: otoCtx,
	}
	rt.running.Store(true)

	rt.otoPlayer = otoCtx.NewPlayer(&audioStream{rt: rt, pcm: NewAudioReader(player)})
	rt.otoPlayer.SetBufferSize(player.SampleRate / 10 * 2) // 100ms
	rt.otoPlayer.Play()
	logrus.WithField("sample_rate", player.SampleRate).Debug("audio output started")
	return rt, nil
}

// Close silences the stream and closes the device player
func (rt *RealtimeOutput) Close() error {
	rt.running.Store(false)
	if rt.otoPlayer == nil {
		return nil
	}
	return rt.otoPlayer.Close()
}

// audioStream feeds oto, emitting silence once closed
type audioStream struct {
	rt  *RealtimeOutput
	pcm *AudioReader
}

func (s *audioStream) Read(buf []byte) (int, error) {
	if !s.rt.running.Load() {
		clear(buf)
		return len(buf), nil
	}
	return s.pcm.Read(buf)
}
