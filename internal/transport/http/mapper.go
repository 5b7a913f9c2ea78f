package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/borrelio/internal/core"
	"github.com/vovakirdan/borrelio/internal/proto"
)

type validator interface {
	Validate() error
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// decodeData unmarshals and validates one typed payload.
func decodeData[T validator](raw json.RawMessage) (T, *proto.Error) {
	var data T
	if len(raw) == 0 || string(raw) == "null" {
		return data, badRequest("data is required")
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, badRequest("malformed data: " + err.Error())
	}
	if err := data.Validate(); err != nil {
		return data, badRequest(err.Error())
	}
	return data, nil
}

// inboundToCommand validates an envelope and turns it into a hub command.
// A nil command with a nil error means the message was handled here.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &hello); err != nil {
				return nil, badRequest("malformed data: " + err.Error())
			}
		}
		if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{Code: core.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}
		}
		return nil, nil
	case proto.InboundTypeJoin, proto.InboundTypeLeave, proto.InboundTypeStartCall:
		data, perr := decodeData[proto.RoomData](inbound.Data)
		if perr != nil {
			return nil, perr
		}
		kind := core.CommandJoinRoom
		switch inbound.Type {
		case proto.InboundTypeLeave:
			kind = core.CommandLeaveRoom
		case proto.InboundTypeStartCall:
			kind = core.CommandStartCall
		}
		return &core.Command{Kind: kind, Room: data.RoomID}, nil
	case proto.InboundTypeUpdateLocation:
		data, perr := decodeData[proto.UpdateLocationData](inbound.Data)
		if perr != nil {
			return nil, perr
		}
		return &core.Command{
			Kind:     core.CommandUpdateLocation,
			Room:     data.RoomID,
			Location: core.Location{X: data.Location.X, Y: data.Location.Y},
		}, nil
	case proto.InboundTypeUpdateName:
		data, perr := decodeData[proto.UpdateNameData](inbound.Data)
		if perr != nil {
			return nil, perr
		}
		return &core.Command{
			Kind: core.CommandUpdateName,
			Room: data.RoomID,
			Name: strings.TrimSpace(data.NewName),
		}, nil
	case proto.InboundTypeOffer, proto.InboundTypeAnswer:
		data, perr := decodeData[proto.SessionDescriptionData](inbound.Data)
		if perr != nil {
			return nil, perr
		}
		kind := core.CommandOffer
		if inbound.Type == proto.InboundTypeAnswer {
			kind = core.CommandAnswer
		}
		return &core.Command{
			Kind:   kind,
			Room:   data.RoomID,
			Target: data.TargetID,
			Signal: core.Signal{SDP: data.SDP},
		}, nil
	case proto.InboundTypeICECandidate:
		data, perr := decodeData[proto.ICECandidateData](inbound.Data)
		if perr != nil {
			return nil, perr
		}
		return &core.Command{
			Kind:   core.CommandICECandidate,
			Room:   data.RoomID,
			Target: data.TargetID,
			Signal: core.Signal{Label: data.Label, Candidate: data.Candidate},
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func usersFromSnapshot(snap core.Snapshot) proto.Users {
	users := make(proto.Users, len(snap))
	for id, st := range snap {
		users[id] = proto.UserState{
			Location: proto.Location{X: st.Location.X, Y: st.Location.Y},
			Name:     st.Name,
		}
	}
	return users
}

// outboundFromEvent renders a hub event. welcome supplies the session
// parameters announced to new connections.
func outboundFromEvent(event *core.Event, welcome proto.WelcomeData) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String(), Room: event.Room}

	switch event.Kind {
	case core.EventWelcome:
		welcome.UserID = event.User
		out.Data = welcome
	case core.EventRoomCreated, core.EventRoomJoined, core.EventRoomFull:
		out.Data = proto.RoomEvent{RoomID: event.Room}
	case core.EventPresence:
		out.Data = usersFromSnapshot(event.Snapshot)
	case core.EventStartCall:
		out.Data = proto.StartCallEvent{UserID: event.User}
	case core.EventOffer, core.EventAnswer:
		out.Data = proto.SessionDescriptionEvent{
			SDP:      event.Signal.SDP,
			UserID:   event.User,
			SenderID: event.Sender,
		}
	case core.EventICECandidate:
		out.Data = proto.ICECandidateEvent{
			UserID:    event.User,
			Label:     event.Signal.Label,
			Candidate: event.Signal.Candidate,
			SenderID:  event.Sender,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: core.ErrCodeInternal, Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: core.ErrCodeInternal, Msg: "unknown event"}}
	}
	return out
}
