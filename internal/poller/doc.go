// Package poller implements the Polling Fallback component.
//
// The poller pulls data the push channel does not carry:
//   - recent events on a short period, replacing the local list wholesale
//   - aggregate statistics on a longer period, appending one derived sample
//     to a bounded rolling history
//
// Both timers run only while the simulation is reported running; a false
// transition of the running flag cancels them immediately. Fetch failures
// are logged and skipped.
package poller
