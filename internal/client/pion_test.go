package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestPionOfferAnswerRoundTrip(t *testing.T) {
	factory := NewPionFactory(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracks, err := SilenceSource{}.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Kind() != webrtc.RTPCodecTypeAudio {
		t.Fatalf("unexpected tracks: %v", tracks)
	}

	caller, err := factory.NewPeer("callee", tracks, PeerHandlers{})
	if err != nil {
		t.Fatalf("caller: %v", err)
	}
	defer caller.Close()
	callee, err := factory.NewPeer("caller", nil, PeerHandlers{})
	if err != nil {
		t.Fatalf("callee: %v", err)
	}
	defer callee.Close()

	offer, err := caller.CreateOffer()
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	var desc struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	if err := json.Unmarshal(offer, &desc); err != nil || desc.Type != "offer" || desc.SDP == "" {
		t.Fatalf("offer not a session description: %s (%v)", offer, err)
	}

	answer, err := callee.AcceptOffer(offer)
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	if err := caller.AcceptAnswer(answer); err != nil {
		t.Fatalf("accept answer: %v", err)
	}
}

func TestAcceptOfferRejectsAnswer(t *testing.T) {
	factory := NewPionFactory([]string{"stun:stun.l.google.com:19302"}, nil)
	peer, err := factory.NewPeer("x", nil, PeerHandlers{})
	if err != nil {
		t.Fatalf("peer: %v", err)
	}
	defer peer.Close()

	_, err = peer.AcceptOffer(json.RawMessage(`{"type":"answer","sdp":"v=0"}`))
	if !errors.Is(err, errWrongDescription) {
		t.Fatalf("expected errWrongDescription, got %v", err)
	}
	if _, err := peer.AcceptOffer(json.RawMessage(`"nope"`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestVirtualPlayer(t *testing.T) {
	p := NewVirtualPlayer()
	if !p.Paused() {
		t.Fatal("player should start paused")
	}
	if err := p.Play(); err != nil || p.Paused() {
		t.Fatalf("play: %v paused=%v", err, p.Paused())
	}
	p.SetVolume(0.5)
	if p.Volume() != 0.5 {
		t.Fatalf("volume = %v", p.Volume())
	}
}
