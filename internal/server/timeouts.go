package server

import "time"

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	// Whole-dictionary responses are several megabytes and may wait on an upstream fetch.
	writeTimeout = 60 * time.Second
	idleTimeout  = 60 * time.Second
)

// shutdownTimeout and warmupTimeout remain vars for tests to override.
var (
	shutdownTimeout = 10 * time.Second
	warmupTimeout   = 2 * time.Minute
)
