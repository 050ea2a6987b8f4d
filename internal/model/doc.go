// Package model defines shared data types for the elevator simulator client.
//
// Conventions:
//   - Simulation timestamps: float64 seconds of simulated time
//   - Floors: 1-based integers; elevator position is float64 (between floors
//     while moving)
//   - Wire tags match the simulator's JSON field names exactly
package model
