package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// expectNoEvent fails if an event of kind arrives within wait.
func expectNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// startHub runs a hub with default options until the test ends.
func startHub(t *testing.T, opts RegistryOptions) Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(opts, nil)
	go hub.Run(ctx)
	return hub
}

// connect registers a client and consumes its welcome event.
func connect(t *testing.T, hub Hub, id string) *Client {
	t.Helper()

	c := NewClient(id)
	hub.RegisterClient(c)
	ev := mustEvent(t, c.Events, EventWelcome)
	if ev.User != id {
		t.Fatalf("welcome for %q, want %q", ev.User, id)
	}
	return c
}

// join sends a join and waits for the confirmation and first snapshot.
func join(t *testing.T, c *Client, room string, want EventKind) *Event {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	mustEvent(t, c.Events, want)
	return mustEvent(t, c.Events, EventPresence)
}
