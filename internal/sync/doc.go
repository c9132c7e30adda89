// Package sync pushes the local course and class tables to the remote
// server.
//
// # Protocol
//
// Each push sends the ENTIRE table as one JSON array:
//
//	POST {base}/syncYogaCourses   body: [Course, ...]
//	POST {base}/syncYogaClasses   body: [ClassSession, ...]
//
// Any 2xx response is success. There is no delta, no acknowledgement per
// record and no idempotency key: the server is expected to replace its copy
// with each payload, so the last push it applies wins.
//
// # Fire-and-forget
//
// SyncCourses and SyncClasses enqueue a push on a background worker and
// return immediately. The worker reads the table when the job runs, so a
// push always carries the latest local state. Failures (network errors,
// non-2xx responses) are logged and dropped:
//
//   - nothing is returned to the caller
//   - nothing is retried; the next trigger re-sends everything anyway
//   - the local write that caused the trigger is never rolled back
//
// PushCourses and PushClasses are the synchronous forms, for callers that
// want the outcome (the sync command, tests).
//
// Usage:
//
//	client := sync.New(database, sync.Config{BaseURL: "http://localhost:3000"})
//	defer client.Close(context.Background())
//
//	client.SyncCourses() // returns at once
package sync
