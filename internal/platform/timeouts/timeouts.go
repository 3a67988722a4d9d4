// Package timeouts defines shared timeout constants used across postshelf
// commands and servers.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// FixtureFetch is the default cap on loading the seed fixture.
const FixtureFetch = 10 * time.Second

// SessionSweep is how often idle session scopes are checked for eviction.
const SessionSweep = time.Minute
