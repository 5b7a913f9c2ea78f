package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog"
)

// trackSink consumes a remote track. The gain is kept for whatever output
// stage reads the track.
type trackSink struct {
	track  *webrtc.TrackRemote
	volume atomic.Uint64
	bytes  atomic.Int64
	closed atomic.Bool
}

func newTrackSink(track *webrtc.TrackRemote) *trackSink {
	return &trackSink{track: track}
}

func (s *trackSink) drain() {
	buf := make([]byte, 1500)
	for !s.closed.Load() {
		n, _, err := s.track.Read(buf)
		if err != nil {
			return
		}
		s.bytes.Add(int64(n))
	}
}

func (s *trackSink) SetVolume(gain float64) {
	s.volume.Store(math.Float64bits(gain))
}

func (s *trackSink) Volume() float64 {
	return math.Float64frombits(s.volume.Load())
}

func (s *trackSink) Close() error {
	s.closed.Store(true)
	return nil
}

// opusSilence is a single 20ms Opus frame of silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

const frameDuration = 20 * time.Millisecond

// SilenceSource publishes an Opus audio track carrying silence. It stands
// in for a microphone on headless participants.
type SilenceSource struct {
	StreamID string
	Log      *zerolog.Logger
}

func (s SilenceSource) Acquire(ctx context.Context) ([]webrtc.TrackLocal, error) {
	streamID := s.StreamID
	if streamID == "" {
		streamID = "borrelio"
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("create audio track: %w", err)
	}

	go func() {
		ticker := time.NewTicker(frameDuration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := track.WriteSample(media.Sample{Data: opusSilence, Duration: frameDuration}); err != nil && !errors.Is(err, io.ErrClosedPipe) {
					if s.Log != nil {
						s.Log.Debug().Err(err).Msg("write silence")
					}
					return
				}
			}
		}
	}()

	return []webrtc.TrackLocal{track}, nil
}

// VirtualPlayer is a Player with no audio output. It starts paused.
type VirtualPlayer struct {
	mu     sync.Mutex
	paused bool
	volume float64
}

func NewVirtualPlayer() *VirtualPlayer {
	return &VirtualPlayer{paused: true}
}

func (p *VirtualPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *VirtualPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	return nil
}

func (p *VirtualPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *VirtualPlayer) SetVolume(gain float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = gain
}

func (p *VirtualPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// LogView writes participant changes to a zerolog logger.
type LogView struct {
	Log *zerolog.Logger
}

func (v LogView) ParticipantAdded(p Person) {
	v.Log.Info().Str("peer", p.ID).Str("name", p.Name).
		Float64("x", p.Position.X).Float64("y", p.Position.Y).Msg("participant joined")
}

func (v LogView) ParticipantUpdated(p Person) {
	v.Log.Debug().Str("peer", p.ID).Str("name", p.Name).
		Float64("distance", p.Distance).Float64("gain", p.Gain).Msg("participant updated")
}

func (v LogView) ParticipantRemoved(id string) {
	v.Log.Info().Str("peer", id).Msg("participant removed")
}
