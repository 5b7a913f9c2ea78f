package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/borrelio/internal/proto"
	"github.com/vovakirdan/borrelio/internal/proximity"
)

// Options configures a Controller. Signaler and Peers are required.
type Options struct {
	Signaler   Signaler
	Peers      PeerFactory
	Media      MediaSource
	View       View
	Proximity  proximity.Model
	Emitters   []*Emitter
	Logger     *zerolog.Logger
	OnRoomFull func(roomID string)
}

type peerSlot struct {
	id    string
	state NegotiationState
	conn  PeerConn
	sink  MediaSink

	// described is set once our offer or answer went out. Local candidates
	// gathered before that wait in pending.
	described bool
	pending   []proto.ICECandidateData
}

// Controller is one participant's session. Server events, local actions and
// peer callbacks are serialized by one mutex.
type Controller struct {
	mu sync.Mutex

	signaler Signaler
	factory  PeerFactory
	media    MediaSource
	view     View
	model    proximity.Model
	log      *zerolog.Logger

	onRoomFull func(string)

	selfID   string
	roomID   string
	joined   bool
	full     bool
	self     proximity.Position
	name     string
	people   map[string]*Person
	peers    map[string]*peerSlot
	emitters []*Emitter

	local      []webrtc.TrackLocal
	mediaReady bool
}

// NewController builds a controller that is not yet in a room.
func NewController(opts Options) *Controller {
	if opts.Media == nil {
		opts.Media = NoMedia{}
	}
	if opts.View == nil {
		opts.View = nopView{}
	}
	if opts.Proximity.Validate() != nil {
		opts.Proximity = proximity.Default()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Controller{
		signaler:   opts.Signaler,
		factory:    opts.Peers,
		media:      opts.Media,
		view:       opts.View,
		model:      opts.Proximity,
		log:        opts.Logger,
		onRoomFull: opts.OnRoomFull,
		self:       proximity.Position{X: 250, Y: 250},
		name:       "User",
		people:     make(map[string]*Person),
		peers:      make(map[string]*peerSlot),
		emitters:   opts.Emitters,
	}
}

// Join asks the server to admit this connection into roomID.
func (c *Controller) Join(roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return ErrEmptyRoom
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomID = roomID
	c.full = false
	return c.send(proto.InboundTypeJoin, proto.RoomData{RoomID: roomID})
}

// Leave exits the current room and drops every peer.
func (c *Controller) Leave() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roomID == "" {
		return ErrNotInRoom
	}
	err := c.send(proto.InboundTypeLeave, proto.RoomData{RoomID: c.roomID})
	c.teardownAll()
	c.roomID = ""
	c.joined = false
	return err
}

// Move shifts the local position by one Step.
func (c *Controller) Move(dir Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dx, dy := dir.delta()
	return c.moveTo(proximity.Position{X: c.self.X + dx, Y: c.self.Y + dy})
}

// SetPosition places the local participant anywhere on the plane.
func (c *Controller) SetPosition(p proximity.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.moveTo(p)
}

func (c *Controller) moveTo(p proximity.Position) error {
	if !c.joined {
		return ErrNotInRoom
	}
	c.self = p
	c.updateVolumes()
	return c.send(proto.InboundTypeUpdateLocation, proto.UpdateLocationData{
		RoomID:   c.roomID,
		Location: &proto.Location{X: p.X, Y: p.Y},
	})
}

// Rename changes the local display name.
func (c *Controller) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > proto.MaxNameLength {
		return proto.ErrInvalidName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return ErrNotInRoom
	}
	c.name = name
	return c.send(proto.InboundTypeUpdateName, proto.UpdateNameData{RoomID: c.roomID, NewName: name})
}

// Run handles server events until ctx ends or incoming is closed, then
// closes every peer.
func (c *Controller) Run(ctx context.Context, incoming <-chan proto.OutboundEnvelope) error {
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-incoming:
			if !ok {
				return ErrClosed
			}
			if err := c.HandleEvent(ctx, env); err != nil {
				c.log.Warn().Err(err).Str("event", env.Event).Msg("event handling failed")
			}
		}
	}
}

// Close tears down every peer connection.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownAll()
}

// HandleEvent applies one server message.
func (c *Controller) HandleEvent(ctx context.Context, env proto.OutboundEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if env.Type == proto.OutboundTypeError {
		if env.Error != nil {
			c.log.Warn().Str("code", env.Error.Code).Str("msg", env.Error.Msg).Msg("server error")
		}
		return nil
	}
	if env.Event != proto.EventWelcome && env.Room != "" && env.Room != c.roomID {
		c.log.Debug().Str("event", env.Event).Str("room", env.Room).Msg("event for another room ignored")
		return nil
	}

	switch env.Event {
	case proto.EventWelcome:
		var data proto.WelcomeData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		c.applyWelcome(data)
	case proto.EventRoomCreated:
		c.joined = true
		c.acquireMedia(ctx)
		c.log.Info().Str("room", c.roomID).Msg("room created, waiting for others")
	case proto.EventRoomJoined:
		c.joined = true
		c.acquireMedia(ctx)
		c.log.Info().Str("room", c.roomID).Msg("room joined, starting call")
		return c.send(proto.InboundTypeStartCall, proto.RoomData{RoomID: c.roomID})
	case proto.EventFullRoom:
		c.handleRoomFull(env.Room)
	case proto.EventUsers:
		var users proto.Users
		if err := decode(env.Data, &users); err != nil {
			return err
		}
		c.applySnapshot(users)
	case proto.EventStartCall:
		var data proto.StartCallEvent
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		return c.handleStartCall(data.UserID)
	case proto.EventOffer:
		var data proto.SessionDescriptionEvent
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		return c.handleOffer(data)
	case proto.EventAnswer:
		var data proto.SessionDescriptionEvent
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		return c.handleAnswer(data)
	case proto.EventICECandidate:
		var data proto.ICECandidateEvent
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		return c.handleCandidate(data)
	default:
		c.log.Debug().Str("event", env.Event).Msg("ignoring unknown event")
	}
	return nil
}

func decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode event data: %w", err)
	}
	return nil
}

func (c *Controller) applyWelcome(data proto.WelcomeData) {
	c.selfID = data.UserID
	model := proximity.Model{Near: data.Proximity.Near, Far: data.Proximity.Far}
	if model.Validate() == nil {
		c.model = model
	}
	if cfg, ok := c.factory.(iceConfigurer); ok && len(data.ICEServers) > 0 {
		cfg.SetICEServers(data.ICEServers)
	}
	c.log.Debug().Str("self", c.selfID).Int("max_room_size", data.MaxRoomSize).Msg("welcome received")
}

// acquireMedia captures local media once. Failure is logged and the
// participant continues receive-only.
func (c *Controller) acquireMedia(ctx context.Context) {
	if c.mediaReady {
		return
	}
	c.mediaReady = true

	tracks, err := c.media.Acquire(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not acquire local media, continuing without it")
		return
	}
	c.local = tracks
}

func (c *Controller) handleRoomFull(roomID string) {
	c.full = true
	c.joined = false
	for _, slot := range c.peers {
		c.closeSlot(slot)
		slot.state = StateTerminated
	}
	c.log.Warn().Str("room", roomID).Msg("room is full")
	if c.onRoomFull != nil {
		c.onRoomFull(roomID)
	}
}

// applySnapshot replaces the remote set with users. Vanished participants
// lose their peer connection, media sink and view.
func (c *Controller) applySnapshot(users proto.Users) {
	for id, st := range users {
		pos := proximity.Position{X: st.Location.X, Y: st.Location.Y}
		if id == c.selfID {
			c.self = pos
			c.name = st.Name
			continue
		}

		if p, known := c.people[id]; known {
			p.Position = pos
			p.Name = st.Name
			continue
		}
		c.people[id] = &Person{ID: id, Position: pos, Name: st.Name}
		if _, negotiating := c.peers[id]; !negotiating {
			c.peers[id] = &peerSlot{id: id, state: StateIdle}
		}
		c.view.ParticipantAdded(*c.people[id])
	}

	for id := range c.people {
		if _, present := users[id]; present {
			continue
		}
		c.removeParticipant(id)
	}

	c.updateVolumes()
}

func (c *Controller) removeParticipant(id string) {
	if slot, ok := c.peers[id]; ok {
		c.closeSlot(slot)
		delete(c.peers, id)
	}
	delete(c.people, id)
	c.view.ParticipantRemoved(id)
	c.log.Debug().Str("peer", id).Msg("participant left")
}

// updateVolumes recomputes distance and gain for every remote participant
// and ambient emitter. Paused emitters resume once audible; nothing is ever
// paused here.
func (c *Controller) updateVolumes() {
	for _, p := range c.people {
		p.Distance = proximity.Distance(c.self, p.Position)
		p.Gain = c.model.Gain(p.Distance)
		if slot, ok := c.peers[p.ID]; ok && slot.sink != nil {
			slot.sink.SetVolume(p.Gain)
		}
		c.view.ParticipantUpdated(*p)
	}

	for _, e := range c.emitters {
		if e.Player == nil {
			continue
		}
		gain := c.model.GainBetween(c.self, e.Position)
		e.Player.SetVolume(gain)
		if gain > 0 && e.Player.Paused() {
			if err := e.Player.Play(); err != nil {
				c.log.Warn().Err(err).Str("emitter", e.ID).Msg("could not resume emitter")
			}
		}
	}
}

func (c *Controller) handleStartCall(remoteID string) error {
	if c.full || remoteID == "" || remoteID == c.selfID {
		return nil
	}

	slot, err := c.openSlot(remoteID)
	if err != nil {
		return err
	}
	offer, err := slot.conn.CreateOffer()
	if err != nil {
		c.dropSlot(slot)
		return fmt.Errorf("create offer for %s: %w", remoteID, err)
	}
	slot.state = StateOfferPending

	if err := c.send(proto.InboundTypeOffer, proto.SessionDescriptionData{
		RoomID:   c.roomID,
		TargetID: remoteID,
		SDP:      offer,
	}); err != nil {
		return err
	}
	c.flushCandidates(slot)
	return nil
}

func (c *Controller) handleOffer(data proto.SessionDescriptionEvent) error {
	if c.full || data.UserID != c.selfID || data.SenderID == "" {
		return nil
	}

	// Crossing offers, when both sides answered each other's start_call,
	// replace our own pending offer. The peer does the same with ours, so the pair
	// may stall; negotiation is not retried.
	slot, err := c.openSlot(data.SenderID)
	if err != nil {
		return err
	}
	answer, err := slot.conn.AcceptOffer(data.SDP)
	if err != nil {
		c.dropSlot(slot)
		return fmt.Errorf("answer offer from %s: %w", data.SenderID, err)
	}
	slot.state = StateAnswerPending

	if err := c.send(proto.InboundTypeAnswer, proto.SessionDescriptionData{
		RoomID:   c.roomID,
		TargetID: data.SenderID,
		SDP:      answer,
	}); err != nil {
		return err
	}
	c.flushCandidates(slot)
	return nil
}

func (c *Controller) handleAnswer(data proto.SessionDescriptionEvent) error {
	if data.UserID != c.selfID {
		return nil
	}
	slot, ok := c.peers[data.SenderID]
	if !ok || slot.state != StateOfferPending {
		c.log.Debug().Str("peer", data.SenderID).Msg("unexpected answer dropped")
		return nil
	}
	if err := slot.conn.AcceptAnswer(data.SDP); err != nil {
		return fmt.Errorf("apply answer from %s: %w", data.SenderID, err)
	}
	slot.state = StateConnected
	c.log.Info().Str("peer", data.SenderID).Msg("peer connected")
	return nil
}

func (c *Controller) handleCandidate(data proto.ICECandidateEvent) error {
	if data.UserID != c.selfID {
		return nil
	}
	slot, ok := c.peers[data.SenderID]
	if !ok || slot.conn == nil || slot.state == StateIdle || slot.state == StateTerminated {
		c.log.Debug().Str("peer", data.SenderID).Msg("candidate for idle peer dropped")
		return nil
	}
	if err := slot.conn.AddICECandidate(data.Label, data.Candidate); err != nil {
		return fmt.Errorf("add candidate from %s: %w", data.SenderID, err)
	}
	return nil
}

// openSlot creates a fresh peer connection for remoteID, replacing any
// earlier one.
func (c *Controller) openSlot(remoteID string) (*peerSlot, error) {
	slot, ok := c.peers[remoteID]
	if !ok {
		slot = &peerSlot{id: remoteID}
		c.peers[remoteID] = slot
	}
	c.closeSlot(slot)

	roomID := c.roomID
	var conn PeerConn
	conn, err := c.factory.NewPeer(remoteID, c.local, PeerHandlers{
		OnICECandidate: func(label *uint16, candidate string) {
			c.localCandidate(conn, proto.ICECandidateData{
				RoomID:    roomID,
				TargetID:  remoteID,
				Label:     label,
				Candidate: candidate,
			})
		},
		OnTrack: func(sink MediaSink) {
			c.attachSink(remoteID, conn, sink)
		},
		OnConnected: func() {
			c.markConnected(remoteID, conn)
		},
		OnFailed: func() {
			c.markFailed(remoteID, conn)
		},
	})
	if err != nil {
		slot.state = StateIdle
		return nil, fmt.Errorf("new peer %s: %w", remoteID, err)
	}
	slot.conn = conn
	slot.state = StateIdle
	return slot, nil
}

func (c *Controller) dropSlot(slot *peerSlot) {
	c.closeSlot(slot)
	slot.state = StateIdle
}

func (c *Controller) closeSlot(slot *peerSlot) {
	if slot.sink != nil {
		if err := slot.sink.Close(); err != nil {
			c.log.Debug().Err(err).Str("peer", slot.id).Msg("close sink")
		}
		slot.sink = nil
	}
	if slot.conn != nil {
		if err := slot.conn.Close(); err != nil {
			c.log.Debug().Err(err).Str("peer", slot.id).Msg("close peer")
		}
		slot.conn = nil
	}
	slot.described = false
	slot.pending = nil
}

func (c *Controller) teardownAll() {
	for id, slot := range c.peers {
		c.closeSlot(slot)
		delete(c.peers, id)
	}
	for id := range c.people {
		delete(c.people, id)
		c.view.ParticipantRemoved(id)
	}
}

// current returns the slot for remoteID if conn is still its connection.
func (c *Controller) current(remoteID string, conn PeerConn) (*peerSlot, bool) {
	slot, ok := c.peers[remoteID]
	if !ok || slot.conn == nil || slot.conn != conn {
		return nil, false
	}
	return slot, true
}

// localCandidate relays a candidate gathered by conn, holding it back until
// the session description it belongs to has been sent.
func (c *Controller) localCandidate(conn PeerConn, data proto.ICECandidateData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.current(data.TargetID, conn)
	if !ok {
		return
	}
	if !slot.described {
		slot.pending = append(slot.pending, data)
		return
	}
	c.sendCandidate(data)
}

func (c *Controller) flushCandidates(slot *peerSlot) {
	slot.described = true
	for _, data := range slot.pending {
		c.sendCandidate(data)
	}
	slot.pending = nil
}

func (c *Controller) sendCandidate(data proto.ICECandidateData) {
	if err := c.send(proto.InboundTypeICECandidate, data); err != nil {
		c.log.Debug().Err(err).Str("peer", data.TargetID).Msg("candidate not sent")
	}
}

func (c *Controller) attachSink(remoteID string, conn PeerConn, sink MediaSink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.current(remoteID, conn)
	if !ok {
		_ = sink.Close()
		return
	}
	if slot.sink != nil {
		// One sink per peer; later tracks of the same peer are ignored.
		_ = sink.Close()
		return
	}
	slot.sink = sink
	gain := 0.0
	if p, ok := c.people[remoteID]; ok {
		gain = c.model.Gain(proximity.Distance(c.self, p.Position))
	}
	sink.SetVolume(gain)
}

func (c *Controller) markConnected(remoteID string, conn PeerConn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.current(remoteID, conn)
	if !ok || slot.state == StateTerminated || slot.state == StateConnected {
		return
	}
	slot.state = StateConnected
	c.log.Info().Str("peer", remoteID).Msg("peer connected")
}

func (c *Controller) markFailed(remoteID string, conn PeerConn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.current(remoteID, conn)
	if !ok {
		return
	}
	slot.state = StateTerminated
	c.log.Warn().Str("peer", remoteID).Msg("peer connection failed")
}

func (c *Controller) send(typ string, data any) error {
	in, err := proto.NewInbound(typ, data)
	if err != nil {
		return err
	}
	return c.signaler.Send(in)
}

// SelfID is the connection id announced by the server.
func (c *Controller) SelfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfID
}

// Self returns the local position and name.
func (c *Controller) Self() (proximity.Position, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self, c.name
}

// People lists remote participants sorted by id.
func (c *Controller) People() []Person {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Person, 0, len(c.people))
	for _, p := range c.people {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PeerState reports the negotiation state with remoteID.
func (c *Controller) PeerState(remoteID string) (NegotiationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.peers[remoteID]
	if !ok {
		return StateIdle, false
	}
	return slot.state, true
}

// Full reports whether the last join was rejected for capacity.
func (c *Controller) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.full
}

// Joined reports whether the server admitted this participant.
func (c *Controller) Joined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}
