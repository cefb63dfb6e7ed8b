// Package publish implements the top-level publication orchestrator:
// the state machine that drives thumbnail upload, avatar upsert, and
// per-platform bundle transcode/upload to completion, per spec §4.6.
package publish

// EventKind names a step of the publication state machine
// ([init] → [thumbnail] → [waiting] → [bundle i of N]* → [completed],
// with an [error] branch reachable from any step).
type EventKind string

const (
	EventInit      EventKind = "init"
	EventThumbnail EventKind = "thumbnail"
	EventWaiting   EventKind = "waiting"
	EventBundle    EventKind = "bundle"
	EventCompleted EventKind = "completed"
	EventError     EventKind = "error"
)

// Event is one progress notification sent to a publication's Sink. For
// EventBundle, Part/TotalParts describe upload progress within the
// platform's file, and PlatformIndex/TotalPlatforms describe progress
// across platforms. For EventError, Err carries the failure.
type Event struct {
	Kind           EventKind
	PlatformIndex  int
	TotalPlatforms int
	Part           int
	TotalParts     int
	Err            error
}

// Sink is the one-way channel a publication's progress is sent over.
// The orchestrator owns the sending half; callers own the receiving
// half and must drain it until it closes, per spec §9's note that the
// orchestrator/sink relationship must not be modeled as a
// bidirectional reference.
type Sink chan<- Event
