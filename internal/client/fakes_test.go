package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/vovakirdan/borrelio/internal/proto"
)

type fakeSignaler struct {
	mu   sync.Mutex
	sent []proto.Inbound
}

func (s *fakeSignaler) Send(in proto.Inbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, in)
	return nil
}

// index reports the position of the first message of typ, or -1.
func (s *fakeSignaler) index(typ string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, in := range s.sent {
		if in.Type == typ {
			return i
		}
	}
	return -1
}

func (s *fakeSignaler) count(typ string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, in := range s.sent {
		if in.Type == typ {
			n++
		}
	}
	return n
}

// last decodes the most recent message of typ into dst.
func (s *fakeSignaler) last(t *testing.T, typ string, dst any) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].Type != typ {
			continue
		}
		if err := json.Unmarshal(s.sent[i].Data, dst); err != nil {
			t.Fatalf("decode %s: %v", typ, err)
		}
		return
	}
	t.Fatalf("no %s message sent", typ)
}

type fakePeer struct {
	remoteID   string
	local      int
	handlers   PeerHandlers
	answer     json.RawMessage
	candidates []string
	labels     []*uint16
	closed     bool
	gather     bool
}

// gatherEarly emits a candidate from another goroutine the way pion does
// once a local description is set.
func (p *fakePeer) gatherEarly() {
	if !p.gather {
		return
	}
	label := uint16(0)
	go p.handlers.OnICECandidate(&label, "candidate:early")
}

func (p *fakePeer) CreateOffer() (json.RawMessage, error) {
	p.gatherEarly()
	return json.RawMessage(`{"type":"offer","sdp":"v=0 offer"}`), nil
}

func (p *fakePeer) AcceptOffer(json.RawMessage) (json.RawMessage, error) {
	p.gatherEarly()
	return json.RawMessage(`{"type":"answer","sdp":"v=0 answer"}`), nil
}

func (p *fakePeer) AcceptAnswer(raw json.RawMessage) error {
	p.answer = raw
	return nil
}

func (p *fakePeer) AddICECandidate(label *uint16, candidate string) error {
	p.labels = append(p.labels, label)
	p.candidates = append(p.candidates, candidate)
	return nil
}

func (p *fakePeer) Close() error {
	p.closed = true
	return nil
}

type fakeFactory struct {
	mu         sync.Mutex
	peers      []*fakePeer
	iceServers []string
	gather     bool
}

func (f *fakeFactory) NewPeer(remoteID string, local []webrtc.TrackLocal, h PeerHandlers) (PeerConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &fakePeer{remoteID: remoteID, local: len(local), handlers: h, gather: f.gather}
	f.peers = append(f.peers, p)
	return p, nil
}

func (f *fakeFactory) SetICEServers(urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.iceServers = urls
}

func (f *fakeFactory) peersFor(remoteID string) []*fakePeer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakePeer
	for _, p := range f.peers {
		if p.remoteID == remoteID {
			out = append(out, p)
		}
	}
	return out
}

type fakeSink struct {
	volume float64
	closed bool
}

func (s *fakeSink) SetVolume(gain float64) { s.volume = gain }
func (s *fakeSink) Close() error           { s.closed = true; return nil }

type fakePlayer struct {
	paused bool
	plays  int
	volume float64
}

func (p *fakePlayer) Paused() bool { return p.paused }
func (p *fakePlayer) Play() error {
	p.paused = false
	p.plays++
	return nil
}
func (p *fakePlayer) SetVolume(gain float64) { p.volume = gain }

type fakeMedia struct {
	calls  int
	err    error
	tracks []webrtc.TrackLocal
}

func (m *fakeMedia) Acquire(context.Context) ([]webrtc.TrackLocal, error) {
	m.calls++
	return m.tracks, m.err
}

type fakeView struct {
	added   []string
	removed []string
}

func (v *fakeView) ParticipantAdded(p Person)    { v.added = append(v.added, p.ID) }
func (v *fakeView) ParticipantUpdated(Person)    {}
func (v *fakeView) ParticipantRemoved(id string) { v.removed = append(v.removed, id) }

func mustInbound(typ string, data any) proto.Inbound {
	in, err := proto.NewInbound(typ, data)
	if err != nil {
		panic(err)
	}
	return in
}

func envelope(t *testing.T, event string, data any) proto.OutboundEnvelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	return proto.OutboundEnvelope{Type: proto.OutboundTypeEvent, Event: event, Room: "r1", Data: raw}
}
