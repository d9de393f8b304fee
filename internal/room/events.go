package room

import "time"

// EventType tags an outbound room event. The set is closed; the transport
// maps each variant onto the wire envelope unchanged.
type EventType string

const (
	EventSyncState      EventType = "sync-state"
	EventYourState      EventType = "your-state"
	EventRoster         EventType = "participants-updated"
	EventLeaderboard    EventType = "leaderboard-data"
	EventContestStarted EventType = "contest-started"
	EventContestEnded   EventType = "contest-ended"
)

// Event is one outbound room notification. ConnID is empty for room-wide
// broadcasts; when set, only the subscriber owning that connection should
// deliver the event.
type Event struct {
	Type    EventType
	ConnID  string
	Payload any
}

// contestStartedPayload is the body of a contest-started broadcast.
type contestStartedPayload struct {
	ContestStartedAt *time.Time `json:"contestStartedAt"`
}
