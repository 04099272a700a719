package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received.
// Context carries the request context.
type HTTPStart struct {
	Request   *http.Request
	RequestID string
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Request   *http.Request
	RequestID string
	// Route is the matched route pattern, e.g. /api/tasks/{id}/grade.
	Route    string
	Status   int
	Duration time.Duration
}
