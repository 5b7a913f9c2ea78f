package core

// Room groups the participants sharing a room key.
type Room struct {
	ID           string
	participants map[string]*Participant
}

// NewRoom constructs a room with no participants.
func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		participants: make(map[string]*Participant),
	}
}

// Add inserts a participant. Returns true if newly added.
func (r *Room) Add(p *Participant) bool {
	if _, exists := r.participants[p.ID]; exists {
		return false
	}
	r.participants[p.ID] = p
	return true
}

// Remove deletes a participant. Returns true if removed.
func (r *Room) Remove(id string) bool {
	if _, exists := r.participants[id]; !exists {
		return false
	}
	delete(r.participants, id)
	return true
}

// Get returns the participant with the given id.
func (r *Room) Get(id string) (*Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// Size returns the number of participants.
func (r *Room) Size() int {
	return len(r.participants)
}

// Empty returns true if no participants are in the room.
func (r *Room) Empty() bool {
	return len(r.participants) == 0
}

// Snapshot copies the room state.
func (r *Room) Snapshot() Snapshot {
	snap := make(Snapshot, len(r.participants))
	for id, p := range r.participants {
		snap[id] = ParticipantState{Location: p.Location, Name: p.Name}
	}
	return snap
}

// IDs returns the participant ids in no particular order.
func (r *Room) IDs() []string {
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	return ids
}
