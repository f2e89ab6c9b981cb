// Package timeouts defines shared timeout constants used across the turn
// engine. Centralizing these values prevents drift between service
// boundaries and makes the durations discoverable.
package timeouts

import "time"

// GameStateRequest caps a single HTTP request to the game-state service.
const GameStateRequest = 5 * time.Second

// ModelRequest caps a single narrative model invocation. Generation is
// slow relative to other calls, so this bound is deliberately generous.
const ModelRequest = 60 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
