// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP or gRPC server waits for in-flight
// requests during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreOpen caps how long a bbolt pack file waits for its file lock.
const StoreOpen = time.Second

// Draw caps a single draw request, including nested pack lookups.
const Draw = 10 * time.Second
