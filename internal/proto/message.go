package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello          = "hello"
	InboundTypeJoin           = "join"
	InboundTypeLeave          = "leave"
	InboundTypeUpdateLocation = "update_location"
	InboundTypeUpdateName     = "update_name"
	InboundTypeStartCall      = "start_call"
	InboundTypeOffer          = "webrtc_offer"
	InboundTypeAnswer         = "webrtc_answer"
	InboundTypeICECandidate   = "webrtc_ice_candidate"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventWelcome      = "welcome"
	EventRoomCreated  = "room_created"
	EventRoomJoined   = "room_joined"
	EventFullRoom     = "full_room"
	EventUsers        = "users"
	EventStartCall    = "start_call"
	EventOffer        = "webrtc_offer"
	EventAnswer       = "webrtc_answer"
	EventICECandidate = "webrtc_ice_candidate"

	// MaxNameLength bounds display names, counted in runes.
	MaxNameLength = 64
)

var (
	ErrMissingRoom     = errors.New("roomId is required")
	ErrMissingTarget   = errors.New("targetId is required")
	ErrMissingLocation = errors.New("location is required")
	ErrMissingSDP      = errors.New("sdp is required")
	ErrMissingCand     = errors.New("candidate is required")
	ErrInvalidName     = errors.New("newName must be 1-64 characters")
)

// NewInbound marshals data into an envelope of the given type.
func NewInbound(typ string, data any) (Inbound, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Inbound{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return Inbound{Type: typ, Data: payload}, nil
}

// Location is a point on the room plane, encoded as [x, y].
type Location struct {
	X float64
	Y float64
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{l.X, l.Y})
}

// UnmarshalJSON accepts exactly two numbers.
func (l *Location) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("location: want [x, y], got %d values", len(pair))
	}
	l.X, l.Y = pair[0], pair[1]
	return nil
}

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	Protocol int `json:"protocol,omitempty"`
}

// RoomData addresses a room; used by join, leave and start_call.
type RoomData struct {
	RoomID string `json:"roomId"`
}

func (d RoomData) Validate() error {
	if strings.TrimSpace(d.RoomID) == "" {
		return ErrMissingRoom
	}
	return nil
}

// UpdateLocationData moves the sender inside a room.
type UpdateLocationData struct {
	RoomID   string    `json:"roomId"`
	Location *Location `json:"location"`
}

func (d UpdateLocationData) Validate() error {
	if strings.TrimSpace(d.RoomID) == "" {
		return ErrMissingRoom
	}
	if d.Location == nil {
		return ErrMissingLocation
	}
	return nil
}

// UpdateNameData renames the sender inside a room.
type UpdateNameData struct {
	RoomID  string `json:"roomId"`
	NewName string `json:"newName"`
}

func (d UpdateNameData) Validate() error {
	if strings.TrimSpace(d.RoomID) == "" {
		return ErrMissingRoom
	}
	name := strings.TrimSpace(d.NewName)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}

// SessionDescriptionData carries an offer or answer to one participant.
type SessionDescriptionData struct {
	RoomID   string          `json:"roomId"`
	TargetID string          `json:"targetId"`
	SDP      json.RawMessage `json:"sdp"`
}

func (d SessionDescriptionData) Validate() error {
	if strings.TrimSpace(d.RoomID) == "" {
		return ErrMissingRoom
	}
	if d.TargetID == "" {
		return ErrMissingTarget
	}
	if len(d.SDP) == 0 || string(d.SDP) == "null" {
		return ErrMissingSDP
	}
	return nil
}

// ICECandidateData carries one ICE candidate to one participant.
type ICECandidateData struct {
	RoomID    string  `json:"roomId"`
	TargetID  string  `json:"targetId"`
	Label     *uint16 `json:"label,omitempty"`
	Candidate string  `json:"candidate"`
}

func (d ICECandidateData) Validate() error {
	if strings.TrimSpace(d.RoomID) == "" {
		return ErrMissingRoom
	}
	if d.TargetID == "" {
		return ErrMissingTarget
	}
	if d.Candidate == "" {
		return ErrMissingCand
	}
	return nil
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// OutboundEnvelope is Outbound as seen by a client, with data left undecoded.
type OutboundEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// ProximityData describes the falloff thresholds clients should apply.
type ProximityData struct {
	Near float64 `json:"near"`
	Far  float64 `json:"far"`
}

// WelcomeData announces the connection id and session parameters.
type WelcomeData struct {
	UserID      string        `json:"userId"`
	Protocol    int           `json:"protocol"`
	ICEServers  []string      `json:"iceServers"`
	MaxRoomSize int           `json:"maxRoomSize"`
	Proximity   ProximityData `json:"proximity"`
}

// RoomEvent answers a join with room_created, room_joined or full_room.
type RoomEvent struct {
	RoomID string `json:"roomId"`
}

// UserState is one participant inside a users snapshot.
type UserState struct {
	Location Location `json:"location"`
	Name     string   `json:"name"`
}

// Users is the complete presence snapshot of a room keyed by connection id.
type Users map[string]UserState

// StartCallEvent asks the recipient to send an offer to UserID.
type StartCallEvent struct {
	UserID string `json:"userId"`
}

// SessionDescriptionEvent delivers an offer or answer from SenderID.
type SessionDescriptionEvent struct {
	SDP      json.RawMessage `json:"sdp"`
	UserID   string          `json:"userId"`
	SenderID string          `json:"senderId"`
}

// ICECandidateEvent delivers an ICE candidate from SenderID.
type ICECandidateEvent struct {
	UserID    string  `json:"userId"`
	Label     *uint16 `json:"label,omitempty"`
	Candidate string  `json:"candidate"`
	SenderID  string  `json:"senderId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
