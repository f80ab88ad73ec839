package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"streamdash/internal/protocol"
	"streamdash/pkg/logging"
)

// Handler receives decoded inbound events.
type Handler func(protocol.Event)

// Stats is a snapshot of the channel counters.
type Stats struct {
	Sent      int64
	Dropped   int64
	Received  int64
	Rejected  int64
	Malformed int64
	Unknown   int64
}

// Channel is the dashboard's end of the dashboard ↔ host message channel.
type Channel struct {
	origin string

	mu        sync.RWMutex
	transport Transport
	handler   Handler

	sent      atomic.Int64
	dropped   atomic.Int64
	received  atomic.Int64
	rejected  atomic.Int64
	malformed atomic.Int64
	unknown   atomic.Int64
}

// New creates a channel for a document served from origin. t may be nil;
// commands sent before a transport is attached are dropped.
func New(origin string, t Transport) *Channel {
	return &Channel{origin: origin, transport: t}
}

// Origin returns the channel's own origin.
func (c *Channel) Origin() string { return c.origin }

// Attach replaces the transport.
func (c *Channel) Attach(t Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = t
}

// OnMessage registers the dispatcher for inbound events, replacing any
// previous one.
func (c *Channel) OnMessage(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Send dispatches cmd to the host. It never fails from the caller's point
// of view: a missing transport or a write error is logged and counted.
func (c *Channel) Send(cmd protocol.Command) {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()

	if t == nil {
		c.dropped.Add(1)
		logging.Debug("Channel", "No host attached, dropping %s", cmd.Type)
		return
	}

	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		c.dropped.Add(1)
		logging.Error("Channel", err, "Failed to encode %s", cmd.Type)
		return
	}

	if err := t.Post(c.origin, data); err != nil {
		c.dropped.Add(1)
		if errors.Is(err, ErrClosed) {
			logging.Debug("Channel", "Host transport closed, dropping %s", cmd.Type)
		} else {
			logging.Warn("Channel", "Failed to send %s: %v", cmd.Type, err)
		}
		return
	}
	c.sent.Add(1)
	logging.Debug("Channel", "Sent %s", cmd.Type)
}

// Run drains the attached transport until ctx is cancelled or the
// transport closes, dispatching each frame in arrival order on the calling
// goroutine.
func (c *Channel) Run(ctx context.Context) error {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()
	if t == nil {
		return fmt.Errorf("run channel: no transport attached")
	}

	inbound := t.Inbound()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-inbound:
			if !ok {
				logging.Info("Channel", "Host transport closed")
				return nil
			}
			c.Dispatch(env)
		}
	}
}

// Dispatch validates and delivers a single inbound frame. It reports
// whether the frame reached the handler.
func (c *Channel) Dispatch(env Envelope) bool {
	c.received.Add(1)

	if env.Origin != c.origin {
		c.rejected.Add(1)
		logging.Warn("Channel", "Discarding message from untrusted origin %q", env.Origin)
		return false
	}

	evt, err := protocol.DecodeEvent(env.Data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			c.unknown.Add(1)
		} else {
			c.malformed.Add(1)
		}
		logging.Warn("Channel", "Ignoring inbound message: %v", err)
		return false
	}

	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		logging.Debug("Channel", "No dispatcher registered for %s", evt.EventType())
		return false
	}
	return c.deliver(h, evt)
}

func (c *Channel) deliver(h Handler, evt protocol.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Channel", fmt.Errorf("%v", r), "Dispatcher panicked on %s", evt.EventType())
			ok = false
		}
	}()
	h(evt)
	return true
}

// Stats returns the current counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Sent:      c.sent.Load(),
		Dropped:   c.dropped.Load(),
		Received:  c.received.Load(),
		Rejected:  c.rejected.Load(),
		Malformed: c.malformed.Load(),
		Unknown:   c.unknown.Load(),
	}
}

// Close closes the attached transport and detaches it; later sends are
// dropped.
func (c *Channel) Close() error {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Close()
}
