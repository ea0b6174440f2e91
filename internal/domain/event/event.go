package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reserved message literals for switch-generated events. They are committed
// verbatim and recognized by prefix when the history is read back, so they
// must never change once a log contains them.
const (
	// WarningMessage is the commit message of a warning event.
	WarningMessage = "warning issued"
	// TerminalMessage is the commit message of a terminal event.
	TerminalMessage = "passed away"
)

// Label classifies an event's meaning within the switch lifecycle.
type Label int

const (
	// Heartbeat is any event authored by the repository owner.
	Heartbeat Label = iota
	// Warning is a switch-generated event noting a missed heartbeat.
	Warning
	// Terminal is a switch-generated event declaring the owner unreachable.
	Terminal
)

// String returns a human-readable label name.
func (l Label) String() string {
	switch l {
	case Heartbeat:
		return "heartbeat"
	case Warning:
		return "warning"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// ErrUnrecognized reports a non-owner event whose message matches neither
// reserved literal. Such an event makes the warning count untrustworthy,
// so evaluation must stop.
var ErrUnrecognized = errors.New("unrecognized non-owner event")

// Event is one record in the append-only activity log.
// The label is derived from author and message, never stored.
type Event struct {
	// Message is the raw commit message.
	Message string
	// Author is the commit author identity.
	Author string
	// Timestamp is the commit time, normalized to UTC.
	Timestamp time.Time
}

// Classify derives the event's label given the repository owner identity.
// Owner-authored events are heartbeats regardless of message; anything else
// must carry one of the reserved literals as a message prefix.
func (e *Event) Classify(owner string) (Label, error) {
	if e.Author == owner {
		return Heartbeat, nil
	}

	switch {
	case strings.HasPrefix(e.Message, WarningMessage):
		return Warning, nil
	case strings.HasPrefix(e.Message, TerminalMessage):
		return Terminal, nil
	default:
		return 0, fmt.Errorf("%w: %q by %q at %s",
			ErrUnrecognized, e.Message, e.Author, e.Timestamp.Format(time.RFC3339))
	}
}

// HoursSince returns the fractional hours elapsed from the event to now.
func (e *Event) HoursSince(now time.Time) float64 {
	return now.Sub(e.Timestamp).Hours()
}

// String renders the event for diagnostics.
func (e *Event) String() string {
	return fmt.Sprintf("%q by %s at %s", e.Message, e.Author, e.Timestamp.Format(time.RFC3339))
}
