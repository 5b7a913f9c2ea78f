// Package client is the participant side of a room: it tracks presence,
// negotiates one peer connection per remote participant and turns distances
// into per-peer gain.
package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pion/webrtc/v4"

	"github.com/vovakirdan/borrelio/internal/proto"
	"github.com/vovakirdan/borrelio/internal/proximity"
)

// Step is how far one discrete move travels.
const Step = 10.0

var (
	ErrEmptyRoom  = errors.New("room id is required")
	ErrNotInRoom  = errors.New("not in a room")
	ErrRoomIsFull = errors.New("room is full")
	ErrClosed     = errors.New("signaling connection closed")
)

// Direction is one of the four discrete movement directions.
type Direction int

const (
	Left Direction = iota
	Up
	Right
	Down
)

func (d Direction) delta() (dx, dy float64) {
	switch d {
	case Left:
		return -Step, 0
	case Up:
		return 0, -Step
	case Right:
		return Step, 0
	case Down:
		return 0, Step
	default:
		return 0, 0
	}
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// NegotiationState is the local view of one peer connection.
type NegotiationState int

const (
	StateIdle NegotiationState = iota
	StateOfferPending
	StateAnswerPending
	StateConnected
	StateTerminated
)

func (s NegotiationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOfferPending:
		return "offer_pending"
	case StateAnswerPending:
		return "answer_pending"
	case StateConnected:
		return "connected"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Person is a remote participant as last reported by the server.
type Person struct {
	ID       string
	Position proximity.Position
	Name     string
	Distance float64
	Gain     float64
}

// Signaler delivers messages to the signaling server.
type Signaler interface {
	Send(in proto.Inbound) error
}

// PeerHandlers are invoked by a PeerConn from its own goroutines.
type PeerHandlers struct {
	OnICECandidate func(label *uint16, candidate string)
	OnTrack        func(sink MediaSink)
	OnConnected    func()
	OnFailed       func()
}

// PeerFactory creates peer connections to remote participants.
type PeerFactory interface {
	NewPeer(remoteID string, local []webrtc.TrackLocal, h PeerHandlers) (PeerConn, error)
}

// PeerConn is one negotiated connection. Session descriptions travel as
// {"type": ..., "sdp": ...} JSON.
type PeerConn interface {
	CreateOffer() (json.RawMessage, error)
	AcceptOffer(offer json.RawMessage) (json.RawMessage, error)
	AcceptAnswer(answer json.RawMessage) error
	AddICECandidate(label *uint16, candidate string) error
	Close() error
}

// MediaSink is remote media whose loudness follows proximity.
type MediaSink interface {
	SetVolume(gain float64)
	Close() error
}

// Player is a fixed-position ambient audio source.
type Player interface {
	Paused() bool
	Play() error
	SetVolume(gain float64)
}

// MediaSource captures local media. A failure leaves the participant
// receive-only.
type MediaSource interface {
	Acquire(ctx context.Context) ([]webrtc.TrackLocal, error)
}

// View renders participants. Calls happen with the controller lock held.
type View interface {
	ParticipantAdded(p Person)
	ParticipantUpdated(p Person)
	ParticipantRemoved(id string)
}

type nopView struct{}

func (nopView) ParticipantAdded(Person)   {}
func (nopView) ParticipantUpdated(Person) {}
func (nopView) ParticipantRemoved(string) {}

// NoMedia never captures anything.
type NoMedia struct{}

func (NoMedia) Acquire(context.Context) ([]webrtc.TrackLocal, error) {
	return nil, nil
}

// Emitter is an ambient audio source at a fixed position.
type Emitter struct {
	ID       string
	Position proximity.Position
	Player   Player
}

// iceConfigurer is implemented by factories that accept server-provided ICE servers.
type iceConfigurer interface {
	SetICEServers(urls []string)
}
