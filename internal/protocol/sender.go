package protocol

import "sync"

// Sender is the outbound half of the channel as seen by the state
// components. *channel.Channel satisfies it.
type Sender interface {
	Send(cmd Command)
}

// Recorder is a Sender that keeps every command it is given. The host
// simulator uses it as its command log and tests use it in place of a
// channel.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

func (r *Recorder) Send(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of everything recorded so far, oldest first.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// OfType returns the recorded commands whose Type is cmdType.
func (r *Recorder) OfType(cmdType string) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Command
	for _, c := range r.commands {
		if c.Type == cmdType {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
