package core

import "sort"

// Defaults applied to new participants and rooms.
const (
	DefaultMaxRoomSize = 5
	DefaultName        = "User"
)

// DefaultLocation is where new participants appear.
var DefaultLocation = Location{X: 250, Y: 250}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	MaxRoomSize     int
	DefaultName     string
	DefaultLocation Location
}

// DefaultRegistryOptions returns capacity 5, name "User" and location (250, 250).
func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		MaxRoomSize:     DefaultMaxRoomSize,
		DefaultName:     DefaultName,
		DefaultLocation: DefaultLocation,
	}
}

// Registry maps room ids to their participants.
//
// It performs no locking: the hub goroutine is its only caller, which makes
// the capacity check and room creation in Join atomic.
type Registry struct {
	maxRoomSize     int
	defaultName     string
	defaultLocation Location
	rooms           map[string]*Room
}

// NewRegistry creates an empty registry. A non-positive MaxRoomSize and an
// empty DefaultName fall back to defaults. DefaultLocation is taken as given,
// so the zero value places newcomers at the origin.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.MaxRoomSize <= 0 {
		opts.MaxRoomSize = DefaultMaxRoomSize
	}
	if opts.DefaultName == "" {
		opts.DefaultName = DefaultName
	}
	return &Registry{
		maxRoomSize:     opts.MaxRoomSize,
		defaultName:     opts.DefaultName,
		defaultLocation: opts.DefaultLocation,
		rooms:           make(map[string]*Room),
	}
}

// MaxRoomSize returns the configured room capacity.
func (r *Registry) MaxRoomSize() int {
	return r.maxRoomSize
}

// Join admits connID into roomID.
//
// An unknown room is created and the caller becomes its creator. A full room
// yields RoleRejected and is left untouched. Joining a room twice returns
// ErrAlreadyJoined without mutation.
func (r *Registry) Join(roomID, connID string) (Role, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		room.Add(r.newParticipant(connID))
		r.rooms[roomID] = room
		return RoleCreator, nil
	}

	if _, member := room.Get(connID); member {
		return RoleJoiner, ErrAlreadyJoined
	}
	if room.Size() >= r.maxRoomSize {
		return RoleRejected, nil
	}

	room.Add(r.newParticipant(connID))
	return RoleJoiner, nil
}

// Leave removes connID from roomID. It is a no-op when either is absent.
// destroyed reports whether the room was deleted because it became empty.
func (r *Registry) Leave(roomID, connID string) (removed, destroyed bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return false, false
	}
	if !room.Remove(connID) {
		return false, false
	}
	if room.Empty() {
		delete(r.rooms, roomID)
		return true, true
	}
	return true, false
}

// UpdateLocation moves a participant. Returns false if the room or
// participant no longer exists.
func (r *Registry) UpdateLocation(roomID, connID string, loc Location) bool {
	p, ok := r.participant(roomID, connID)
	if !ok {
		return false
	}
	p.Location = loc
	return true
}

// UpdateName renames a participant. Returns false if the room or
// participant no longer exists.
func (r *Registry) UpdateName(roomID, connID, name string) bool {
	p, ok := r.participant(roomID, connID)
	if !ok {
		return false
	}
	p.Name = name
	return true
}

// Snapshot returns a copy of the room state. Unknown rooms yield an empty snapshot.
func (r *Registry) Snapshot(roomID string) Snapshot {
	room, ok := r.rooms[roomID]
	if !ok {
		return Snapshot{}
	}
	return room.Snapshot()
}

// Exists reports whether the room is live.
func (r *Registry) Exists(roomID string) bool {
	_, ok := r.rooms[roomID]
	return ok
}

// Contains reports whether connID is a member of roomID.
func (r *Registry) Contains(roomID, connID string) bool {
	_, ok := r.participant(roomID, connID)
	return ok
}

// Members returns the connection ids in roomID.
func (r *Registry) Members(roomID string) []string {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.IDs()
}

// Rooms lists live rooms sorted by id.
func (r *Registry) Rooms() []RoomSummary {
	out := make([]RoomSummary, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomSummary{ID: id, Participants: room.Size(), Capacity: r.maxRoomSize})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Participants returns the total number of participants across rooms.
func (r *Registry) Participants() int {
	n := 0
	for _, room := range r.rooms {
		n += room.Size()
	}
	return n
}

func (r *Registry) participant(roomID, connID string) (*Participant, bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.Get(connID)
}

func (r *Registry) newParticipant(connID string) *Participant {
	return &Participant{
		ID:       connID,
		Location: r.defaultLocation,
		Name:     r.defaultName,
	}
}
