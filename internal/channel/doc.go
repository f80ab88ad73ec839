// Package channel implements the single bidirectional message channel
// between the dashboard and the host.
//
// Outbound commands are fire-and-forget: Send never fails from the caller's
// point of view. Inbound frames are delivered in arrival order to one
// registered dispatcher, after two checks:
//
//   - the origin declared on the frame must equal the channel's own origin;
//     this same-origin rule is the only authentication on the channel;
//   - the frame must decode into one of the known protocol events.
//
// Frames failing either check are logged, counted and dropped. A panicking
// dispatcher is recovered so one bad event cannot stop the loop.
//
// Two transports are provided: Pipe, an in-memory linked pair used by tests
// and the loopback host, and a websocket transport (DialWebSocket on the
// dashboard side, WebSocketHandler on the host side).
package channel
