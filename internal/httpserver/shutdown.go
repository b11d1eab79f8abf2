package httpserver

import "time"

// ShutdownTimeout bounds how long Run waits for in-flight requests and how
// long the app waits for background workers to drain.
var ShutdownTimeout = 10 * time.Second
