package proto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLocationDecoding(t *testing.T) {
	cases := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: `[10, 20]`, want: Location{X: 10, Y: 20}},
		{in: `[0.5,-3]`, want: Location{X: 0.5, Y: -3}},
		{in: `[1]`, wantErr: true},
		{in: `[1,2,3]`, wantErr: true},
		{in: `["a","b"]`, wantErr: true},
		{in: `{"x":1,"y":2}`, wantErr: true},
		{in: `"10,20"`, wantErr: true},
	}

	for _, tc := range cases {
		var loc Location
		err := json.Unmarshal([]byte(tc.in), &loc)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %+v", tc.in, loc)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.in, err)
			continue
		}
		if loc != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.in, loc, tc.want)
		}
	}
}

func TestUsersEncodesLocationAsPair(t *testing.T) {
	payload, err := json.Marshal(Users{"c1": {Location: Location{X: 250, Y: 250}, Name: "User"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"c1":{"location":[250,250],"name":"User"}}`
	if string(payload) != want {
		t.Fatalf("got %s, want %s", payload, want)
	}
}

func TestUpdateLocationValidation(t *testing.T) {
	var missing UpdateLocationData
	if err := json.Unmarshal([]byte(`{"roomId":"r1"}`), &missing); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := missing.Validate(); !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("expected ErrMissingLocation, got %v", err)
	}

	var ok UpdateLocationData
	if err := json.Unmarshal([]byte(`{"roomId":"r1","location":[10,10]}`), &ok); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := (UpdateLocationData{Location: &Location{}}).Validate(); !errors.Is(err, ErrMissingRoom) {
		t.Fatalf("expected ErrMissingRoom, got %v", err)
	}
}

func TestUpdateNameValidation(t *testing.T) {
	cases := []struct {
		name string
		data UpdateNameData
		want error
	}{
		{name: "ok", data: UpdateNameData{RoomID: "r", NewName: "alice"}},
		{name: "blank", data: UpdateNameData{RoomID: "r", NewName: "   "}, want: ErrInvalidName},
		{name: "too long", data: UpdateNameData{RoomID: "r", NewName: strings.Repeat("x", MaxNameLength+1)}, want: ErrInvalidName},
		{name: "max runes", data: UpdateNameData{RoomID: "r", NewName: strings.Repeat("é", MaxNameLength)}},
		{name: "no room", data: UpdateNameData{NewName: "alice"}, want: ErrMissingRoom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.data.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSignalValidation(t *testing.T) {
	if err := (SessionDescriptionData{RoomID: "r", SDP: json.RawMessage(`{}`)}).Validate(); !errors.Is(err, ErrMissingTarget) {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}
	if err := (SessionDescriptionData{RoomID: "r", TargetID: "b", SDP: json.RawMessage(`null`)}).Validate(); !errors.Is(err, ErrMissingSDP) {
		t.Fatalf("expected ErrMissingSDP, got %v", err)
	}
	if err := (ICECandidateData{RoomID: "r", TargetID: "b"}).Validate(); !errors.Is(err, ErrMissingCand) {
		t.Fatalf("expected ErrMissingCand, got %v", err)
	}
	if err := (ICECandidateData{RoomID: "r", TargetID: "b", Candidate: "candidate:1"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewInbound(t *testing.T) {
	in, err := NewInbound(InboundTypeJoin, RoomData{RoomID: "r1"})
	if err != nil {
		t.Fatalf("new inbound: %v", err)
	}
	if in.Type != InboundTypeJoin || string(in.Data) != `{"roomId":"r1"}` {
		t.Fatalf("unexpected envelope: %s %s", in.Type, in.Data)
	}
}
