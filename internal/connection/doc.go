// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns at most one live push connection to the simulator at a time
//   - Forwards inbound frames to the Message Dispatcher in arrival order
//   - Distinguishes intentional closes from drops; only drops trigger the
//     Reconnect Policy
//   - Re-establishes dropped connections through an injectable Policy
//     (fixed delay by default)
package connection
