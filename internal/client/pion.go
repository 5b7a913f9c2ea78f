package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// PionFactory builds peer connections on pion/webrtc.
type PionFactory struct {
	mu         sync.Mutex
	iceServers []string
	log        *zerolog.Logger
}

// NewPionFactory returns a factory using iceServers until the server
// announces its own list.
func NewPionFactory(iceServers []string, logger *zerolog.Logger) *PionFactory {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PionFactory{iceServers: append([]string(nil), iceServers...), log: logger}
}

// SetICEServers replaces the STUN/TURN URLs used for new connections.
func (f *PionFactory) SetICEServers(urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.iceServers = append([]string(nil), urls...)
}

func (f *PionFactory) configuration() webrtc.Configuration {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg := webrtc.Configuration{}
	if len(f.iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: append([]string(nil), f.iceServers...)}}
	}
	return cfg
}

// NewPeer creates a connection to remoteID. Local tracks are sent; any
// media kind without a local track is received only. Handlers run on their
// own goroutines.
func (f *PionFactory) NewPeer(remoteID string, local []webrtc.TrackLocal, h PeerHandlers) (PeerConn, error) {
	pc, err := webrtc.NewPeerConnection(f.configuration())
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	sending := map[webrtc.RTPCodecType]bool{}
	for _, track := range local {
		if _, err := pc.AddTrack(track); err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("add %s track: %w", track.Kind(), err)
		}
		sending[track.Kind()] = true
	}
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if sending[kind] {
			continue
		}
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}

	log := f.log.With().Str("peer", remoteID).Logger()

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || h.OnICECandidate == nil {
			return
		}
		cand := c.ToJSON()
		go h.OnICECandidate(cand.SDPMLineIndex, cand.Candidate)
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Debug().Str("kind", track.Kind().String()).Str("codec", track.Codec().MimeType).Msg("remote track")
		sink := newTrackSink(track)
		go sink.drain()
		if h.OnTrack != nil {
			go h.OnTrack(sink)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debug().Str("state", state.String()).Msg("peer connection state")
		switch state {
		case webrtc.PeerConnectionStateConnected:
			if h.OnConnected != nil {
				go h.OnConnected()
			}
		case webrtc.PeerConnectionStateFailed:
			if h.OnFailed != nil {
				go h.OnFailed()
			}
		}
	})

	return &pionPeer{pc: pc}, nil
}

type pionPeer struct {
	pc *webrtc.PeerConnection
}

func (p *pionPeer) CreateOffer() (json.RawMessage, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return json.Marshal(p.pc.LocalDescription())
}

func (p *pionPeer) AcceptOffer(raw json.RawMessage) (json.RawMessage, error) {
	offer, err := decodeDescription(raw, webrtc.SDPTypeOffer)
	if err != nil {
		return nil, err
	}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return json.Marshal(p.pc.LocalDescription())
}

func (p *pionPeer) AcceptAnswer(raw json.RawMessage) error {
	answer, err := decodeDescription(raw, webrtc.SDPTypeAnswer)
	if err != nil {
		return err
	}
	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

func (p *pionPeer) AddICECandidate(label *uint16, candidate string) error {
	if err := p.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     candidate,
		SDPMLineIndex: label,
	}); err != nil {
		return fmt.Errorf("add ICE candidate: %w", err)
	}
	return nil
}

func (p *pionPeer) Close() error {
	return p.pc.Close()
}

var errWrongDescription = errors.New("unexpected session description type")

func decodeDescription(raw json.RawMessage, want webrtc.SDPType) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return desc, fmt.Errorf("parse session description: %w", err)
	}
	if desc.Type != want {
		return desc, fmt.Errorf("%w: got %s, want %s", errWrongDescription, desc.Type, want)
	}
	return desc, nil
}
