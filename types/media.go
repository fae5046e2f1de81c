package types

import "time"

// MediaState is the server-side processing state of an uploaded clip.
type MediaState string

const (
	MediaPending    MediaState = "pending"
	MediaInProgress MediaState = "in_progress"
	MediaSucceeded  MediaState = "succeeded"
	MediaFailed     MediaState = "failed"
)

// MediaStatus is one processing-status observation. CheckAfter is the server's suggested
// wait before asking again, zero when absent.
type MediaStatus struct {
	State      MediaState
	CheckAfter time.Duration
	Error      string
}
