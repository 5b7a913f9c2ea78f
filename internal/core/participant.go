package core

// Location is a participant position in the room plane.
type Location struct {
	X float64
	Y float64
}

// Participant is one connection's presence inside a room.
type Participant struct {
	ID       string
	Location Location
	Name     string
}

// ParticipantState is the broadcast view of a participant.
type ParticipantState struct {
	Location Location
	Name     string
}

// Snapshot is the full state of one room keyed by connection id.
type Snapshot map[string]ParticipantState

// Role is the outcome of a join attempt.
type Role int

const (
	// RoleCreator means the join created the room.
	RoleCreator Role = iota
	// RoleJoiner means the join entered an existing room.
	RoleJoiner
	// RoleRejected means the room was at capacity and nothing changed.
	RoleRejected
)

func (r Role) String() string {
	switch r {
	case RoleCreator:
		return "creator"
	case RoleJoiner:
		return "joiner"
	case RoleRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RoomSummary describes a live room for listings.
type RoomSummary struct {
	ID           string
	Participants int
	Capacity     int
}
