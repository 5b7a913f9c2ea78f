package core

import "sync"

const (
	commandBuffer = 16
	eventBuffer   = 64
)

// Client is one connection as seen by the core layer.
//
// The transport writes to Commands and drains Events. The hub owns Rooms and
// closes Events once the client is unregistered.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event
	Rooms    map[string]struct{}

	done     chan struct{}
	doneOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		Rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// Done is closed once the hub has forgotten the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// release closes done and Events. Only the hub goroutine sends on Events,
// so it is the only caller while the hub runs.
func (c *Client) release() {
	c.doneOnce.Do(func() {
		close(c.done)
		close(c.Events)
	})
}
