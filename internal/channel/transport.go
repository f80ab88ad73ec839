package channel

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Post on a transport that has been closed, or
// whose peer has gone away.
var ErrClosed = errors.New("transport closed")

// ErrBackpressure is returned when the peer's inbound buffer is full.
var ErrBackpressure = errors.New("peer inbound buffer full")

// Envelope is one inbound frame and the origin its sender declared.
type Envelope struct {
	Origin string
	Data   []byte
}

// Transport moves raw frames between two endpoints.
type Transport interface {
	// Post sends data to the peer, declaring origin as the sender's origin.
	Post(origin string, data []byte) error

	// Inbound yields frames from the peer in the order they were sent. The
	// channel is closed when the transport closes.
	Inbound() <-chan Envelope

	// Close releases the transport. It is safe to call more than once.
	Close() error
}

const pipeBufferSize = 1024

type pipeEnd struct {
	mu     sync.Mutex
	in     chan Envelope
	closed bool
	peer   *pipeEnd
}

// Pipe returns two linked in-memory transports: frames posted on one arrive
// on the other's Inbound channel.
func Pipe() (Transport, Transport) {
	a := &pipeEnd{in: make(chan Envelope, pipeBufferSize)}
	b := &pipeEnd{in: make(chan Envelope, pipeBufferSize)}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *pipeEnd) Post(origin string, data []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return p.peer.deliver(Envelope{Origin: origin, Data: append([]byte(nil), data...)})
}

func (p *pipeEnd) deliver(env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.in <- env:
		return nil
	default:
		return ErrBackpressure
	}
}

func (p *pipeEnd) Inbound() <-chan Envelope { return p.in }

func (p *pipeEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.in)
	}
	return nil
}
