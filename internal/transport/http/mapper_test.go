package http

import (
	"encoding/json"
	"testing"

	"github.com/vovakirdan/borrelio/internal/core"
	"github.com/vovakirdan/borrelio/internal/proto"
)

func TestInboundToCommand(t *testing.T) {
	label := uint16(0)
	cases := []struct {
		name string
		in   proto.Inbound
		want core.Command
	}{
		{
			name: "join",
			in:   proto.Inbound{Type: "join", Data: json.RawMessage(`{"roomId":"r1"}`)},
			want: core.Command{Kind: core.CommandJoinRoom, Room: "r1"},
		},
		{
			name: "leave",
			in:   proto.Inbound{Type: "leave", Data: json.RawMessage(`{"roomId":"r1"}`)},
			want: core.Command{Kind: core.CommandLeaveRoom, Room: "r1"},
		},
		{
			name: "start call",
			in:   proto.Inbound{Type: "start_call", Data: json.RawMessage(`{"roomId":"r1"}`)},
			want: core.Command{Kind: core.CommandStartCall, Room: "r1"},
		},
		{
			name: "location",
			in:   proto.Inbound{Type: "update_location", Data: json.RawMessage(`{"roomId":"r1","location":[10,20]}`)},
			want: core.Command{Kind: core.CommandUpdateLocation, Room: "r1", Location: core.Location{X: 10, Y: 20}},
		},
		{
			name: "name trimmed",
			in:   proto.Inbound{Type: "update_name", Data: json.RawMessage(`{"roomId":"r1","newName":" bob "}`)},
			want: core.Command{Kind: core.CommandUpdateName, Room: "r1", Name: "bob"},
		},
		{
			name: "answer",
			in:   proto.Inbound{Type: "webrtc_answer", Data: json.RawMessage(`{"roomId":"r1","targetId":"b","sdp":{"type":"answer"}}`)},
			want: core.Command{Kind: core.CommandAnswer, Room: "r1", Target: "b", Signal: core.Signal{SDP: json.RawMessage(`{"type":"answer"}`)}},
		},
		{
			name: "candidate",
			in:   proto.Inbound{Type: "webrtc_ice_candidate", Data: json.RawMessage(`{"roomId":"r1","targetId":"b","label":0,"candidate":"candidate:1"}`)},
			want: core.Command{Kind: core.CommandICECandidate, Room: "r1", Target: "b", Signal: core.Signal{Label: &label, Candidate: "candidate:1"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, perr := inboundToCommand(tc.in)
			if perr != nil {
				t.Fatalf("unexpected error: %+v", perr)
			}
			if cmd.Kind != tc.want.Kind || cmd.Room != tc.want.Room || cmd.Target != tc.want.Target ||
				cmd.Location != tc.want.Location || cmd.Name != tc.want.Name ||
				string(cmd.Signal.SDP) != string(tc.want.Signal.SDP) || cmd.Signal.Candidate != tc.want.Signal.Candidate {
				t.Fatalf("got %+v, want %+v", cmd, tc.want)
			}
			if (cmd.Signal.Label == nil) != (tc.want.Signal.Label == nil) {
				t.Fatalf("label mismatch: got %v", cmd.Signal.Label)
			}
		})
	}
}

func TestInboundToCommandRejects(t *testing.T) {
	cases := []struct {
		name string
		in   proto.Inbound
		code string
	}{
		{name: "no data", in: proto.Inbound{Type: "join"}, code: core.ErrCodeBadRequest},
		{name: "empty room", in: proto.Inbound{Type: "join", Data: json.RawMessage(`{"roomId":""}`)}, code: core.ErrCodeBadRequest},
		{name: "room not string", in: proto.Inbound{Type: "join", Data: json.RawMessage(`{"roomId":5}`)}, code: core.ErrCodeBadRequest},
		{name: "location object", in: proto.Inbound{Type: "update_location", Data: json.RawMessage(`{"roomId":"r","location":{"x":1}}`)}, code: core.ErrCodeBadRequest},
		{name: "location missing", in: proto.Inbound{Type: "update_location", Data: json.RawMessage(`{"roomId":"r"}`)}, code: core.ErrCodeBadRequest},
		{name: "empty name", in: proto.Inbound{Type: "update_name", Data: json.RawMessage(`{"roomId":"r","newName":""}`)}, code: core.ErrCodeBadRequest},
		{name: "offer without target", in: proto.Inbound{Type: "webrtc_offer", Data: json.RawMessage(`{"roomId":"r","sdp":{}}`)}, code: core.ErrCodeBadRequest},
		{name: "candidate without body", in: proto.Inbound{Type: "webrtc_ice_candidate", Data: json.RawMessage(`{"roomId":"r","targetId":"b"}`)}, code: core.ErrCodeBadRequest},
		{name: "bad version", in: proto.Inbound{Type: "hello", Data: json.RawMessage(`{"protocol":99}`)}, code: core.ErrCodeUnsupportedVersion},
		{name: "unknown", in: proto.Inbound{Type: "msg", Data: json.RawMessage(`{}`)}, code: core.ErrCodeInvalidMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, perr := inboundToCommand(tc.in)
			if cmd != nil {
				t.Fatalf("unexpected command: %+v", cmd)
			}
			if perr == nil || perr.Code != tc.code {
				t.Fatalf("got %+v, want code %s", perr, tc.code)
			}
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	welcome := proto.WelcomeData{Protocol: proto.ProtocolVersion, ICEServers: []string{"stun:x"}}

	out := outboundFromEvent(&core.Event{Kind: core.EventWelcome, User: "c1"}, welcome)
	data, ok := out.Data.(proto.WelcomeData)
	if !ok || data.UserID != "c1" || out.Event != "welcome" {
		t.Fatalf("unexpected welcome: %+v", out)
	}
	if welcome.UserID != "" {
		t.Fatal("welcome template mutated")
	}

	out = outboundFromEvent(&core.Event{
		Kind:     core.EventPresence,
		Room:     "r1",
		Snapshot: core.Snapshot{"c1": {Location: core.Location{X: 250, Y: 250}, Name: "User"}},
	}, welcome)
	payload, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"event","event":"users","room":"r1","data":{"c1":{"location":[250,250],"name":"User"}}}`
	if string(payload) != want {
		t.Fatalf("got %s\nwant %s", payload, want)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventPresence, Room: "gone", Snapshot: core.Snapshot{}}, welcome)
	payload, _ = json.Marshal(out)
	if string(payload) != `{"type":"event","event":"users","room":"gone","data":{}}` {
		t.Fatalf("empty snapshot encoded as %s", payload)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventICECandidate, User: "b", Sender: "a", Signal: core.Signal{Candidate: "candidate:1"}}, welcome)
	ice, ok := out.Data.(proto.ICECandidateEvent)
	if !ok || ice.SenderID != "a" || ice.UserID != "b" {
		t.Fatalf("unexpected candidate: %+v", out)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventError, Error: &core.CoreError{Code: core.ErrCodeAlreadyJoined, Message: "x"}}, welcome)
	if out.Type != proto.OutboundTypeError || out.Error.Code != core.ErrCodeAlreadyJoined {
		t.Fatalf("unexpected error envelope: %+v", out)
	}
}
