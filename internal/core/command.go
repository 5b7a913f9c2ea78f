package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom admits the client into a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom removes the client from a room.
	CommandLeaveRoom
	// CommandUpdateLocation moves the client inside a room.
	CommandUpdateLocation
	// CommandUpdateName changes the client's display name inside a room.
	CommandUpdateName
	// CommandStartCall announces that the client is ready to receive offers.
	CommandStartCall
	// CommandOffer relays a session offer to one participant.
	CommandOffer
	// CommandAnswer relays a session answer to one participant.
	CommandAnswer
	// CommandICECandidate relays an ICE candidate to one participant.
	CommandICECandidate
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join"
	case CommandLeaveRoom:
		return "leave"
	case CommandUpdateLocation:
		return "update_location"
	case CommandUpdateName:
		return "update_name"
	case CommandStartCall:
		return "start_call"
	case CommandOffer:
		return "webrtc_offer"
	case CommandAnswer:
		return "webrtc_answer"
	case CommandICECandidate:
		return "webrtc_ice_candidate"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Room     string
	Target   string // signaling recipient
	Location Location
	Name     string
	Signal   Signal
}
