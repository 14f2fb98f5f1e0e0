package coordinator

import "time"

// EventType defines the type of coordinator event.
type EventType string

const (
	EventBreakReminder    EventType = "break_reminder"
	EventBreakStarted     EventType = "break_started"
	EventBreakEnded       EventType = "break_ended"
	EventProgress         EventType = "progress"
	EventSnoozed          EventType = "snoozed"
	EventProximityWarning EventType = "proximity_warning"
	EventIdleError        EventType = "idle_error"
)

// Event represents a coordinator update for observers.
type Event struct {
	Type             EventType
	ActiveMinutes    int
	MinutesRemaining int
	Duration         time.Duration
	Until            time.Time
	Message          string
	At               time.Time
}
