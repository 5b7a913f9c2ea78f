package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventWelcome tells a freshly registered client its connection id.
	EventWelcome EventKind = iota
	// EventRoomCreated confirms that the join created the room.
	EventRoomCreated
	// EventRoomJoined confirms that the join entered an existing room.
	EventRoomJoined
	// EventRoomFull rejects a join because the room is at capacity.
	EventRoomFull
	// EventPresence carries the full room snapshot.
	EventPresence
	// EventStartCall asks existing occupants to send an offer to User.
	EventStartCall
	// EventOffer delivers a session offer from Sender.
	EventOffer
	// EventAnswer delivers a session answer from Sender.
	EventAnswer
	// EventICECandidate delivers an ICE candidate from Sender.
	EventICECandidate
	// EventError notifies clients about a domain error.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventWelcome:
		return "welcome"
	case EventRoomCreated:
		return "room_created"
	case EventRoomJoined:
		return "room_joined"
	case EventRoomFull:
		return "full_room"
	case EventPresence:
		return "users"
	case EventStartCall:
		return "start_call"
	case EventOffer:
		return "webrtc_offer"
	case EventAnswer:
		return "webrtc_answer"
	case EventICECandidate:
		return "webrtc_ice_candidate"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Signal is an opaque negotiation payload. The hub never looks inside it.
type Signal struct {
	SDP       json.RawMessage
	Label     *uint16
	Candidate string
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	User     string // subject: recipient of a signal, or the caller for start_call
	Sender   string
	Snapshot Snapshot
	Signal   Signal
	Error    *CoreError
}
