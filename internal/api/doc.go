// Package api provides the REST client for the elevator simulator.
//
// It carries both halves of the pull/command channel: one-shot control
// commands (start, stop, reset, passengers, button, config) and the periodic
// pulls for data the push channel does not deliver (events, stats). Reads are
// retried on transient server errors; commands are single-shot and surface
// failures to the caller.
package api
