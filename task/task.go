package task

import (
	"time"

	"tint/theme"
)

// ID identifies a task for its whole lifetime. IDs are never reused.
type ID string

type Kind int

const (
	KindText Kind = iota
	KindVoice
)

func (k Kind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	default:
		return "text"
	}
}

type Status int

const (
	StatusProcessing Status = iota
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	default:
		return "processing"
	}
}

type Task struct {
	ID          ID
	Kind        Kind
	Input       string
	Status      Status
	Result      theme.Theme // set only when Status == StatusReady
	SubmittedAt time.Time
	ReadyAt     time.Time
}

// Entry is the read-only projection of a task shown by the UI.
type Entry struct {
	ID     ID
	Kind   Kind
	Status Status
	Label  string
}

const LabelWorking = "Working in background…"

// Label is derived only from status and kind.
func Label(s Status, k Kind) string {
	if s == StatusProcessing {
		return LabelWorking
	}
	return "Change ready (" + k.String() + ")"
}

type EventType int

const (
	EventSubmitted EventType = iota
	EventReady
	EventDiscarded
	EventRevealed
)

func (e EventType) String() string {
	switch e {
	case EventSubmitted:
		return "submitted"
	case EventReady:
		return "ready"
	case EventDiscarded:
		return "discarded"
	case EventRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

type Event struct {
	Type EventType
	Task Task
	Err  error // set for EventDiscarded
}
