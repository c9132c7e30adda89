package sync

import "errors"

var (
	// ErrSyncTransport is returned by the push methods when the request
	// could not be delivered or the server answered with a non-2xx status.
	// Fire-and-forget triggers log it and carry on.
	ErrSyncTransport = errors.New("sync transport error")

	// ErrNotConfigured is returned when no remote base URL is set.
	ErrNotConfigured = errors.New("sync endpoint not configured")
)
