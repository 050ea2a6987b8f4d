// Package dispatch implements the Message Dispatcher component.
//
// The dispatcher decodes inbound push frames (JSON envelopes of the form
// {"type": ..., "data": ...}), validates their shape, and routes them by kind
// to registered handlers. Decode failures are counted and the frame dropped;
// unknown kinds are ignored so new server frame types never break the client.
package dispatch
