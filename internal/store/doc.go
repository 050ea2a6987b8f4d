// Package store implements the State Store component.
//
// The store holds the latest simulation snapshot (replaced wholesale on every
// applied push frame), the running flag, the polled event list, and a bounded
// rolling history of statistics samples. Snapshot changes are delivered to
// subscribers synchronously, in registration order. Running-flag transitions
// are additionally published on a channel that gates the Polling Fallback.
package store
