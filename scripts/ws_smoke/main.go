package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/borrelio/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	room := flag.String("room", "general", "room to join")
	name := flag.String("name", "smoke", "display name to set after joining")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		in, err := proto.NewInbound(typ, data)
		if err != nil {
			return err
		}
		if err := wsjson.Write(ctx, conn, in); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeHello, proto.HelloData{Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeJoin, proto.RoomData{RoomID: *room}); err != nil {
		return err
	}

	renamed := false
	for {
		var out proto.OutboundEnvelope
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if out.Type == proto.OutboundTypeError && out.Error != nil {
			fmt.Printf("Error: code=%s msg=%s\n", out.Error.Code, out.Error.Msg)
			continue
		}
		fmt.Printf("Received event=%s room=%s\n", out.Event, out.Room)

		switch out.Event {
		case proto.EventWelcome:
			var w proto.WelcomeData
			if err := json.Unmarshal(out.Data, &w); err == nil {
				fmt.Printf("Welcome: user=%s protocol=%d max=%d\n", w.UserID, w.Protocol, w.MaxRoomSize)
			}
		case proto.EventFullRoom:
			return fmt.Errorf("room %s is full", *room)
		case proto.EventUsers:
			var users proto.Users
			if err := json.Unmarshal(out.Data, &users); err != nil {
				return fmt.Errorf("unmarshal users: %w", err)
			}
			for id, u := range users {
				fmt.Printf("  %s name=%q at [%g, %g]\n", id, u.Name, u.Location.X, u.Location.Y)
			}
			if renamed {
				return nil
			}
			if err := send(proto.InboundTypeUpdateName, proto.UpdateNameData{RoomID: *room, NewName: *name}); err != nil {
				return err
			}
			renamed = true
		}
	}
}
