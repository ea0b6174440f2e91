package eventlog

import (
	"context"
	"errors"
	"time"

	"github.com/oedokumaci/dead-mans-switch/internal/domain/event"
)

// Log defines read and append operations over the activity log.
// The switch state machine depends on this interface only; the git
// implementation below is the production backend.
type Log interface {
	// FetchRecent returns the event at the given skip-offset from the most
	// recent one (0 = newest). ErrNotFound is returned past the end of history.
	FetchRecent(ctx context.Context, skip int) (*event.Event, error)
	// Append durably records a switch-generated event and propagates it to
	// the remote before returning. A failed append must fail the run: a
	// warning or terminal decision without a durable record would be
	// re-issued on the next run.
	Append(ctx context.Context, message string, when time.Time) error
	// OwnerIdentity resolves the canonical owner of the log.
	OwnerIdentity(ctx context.Context) (string, error)
}

// ErrNotFound is returned when no event exists at the requested offset.
var ErrNotFound = errors.New("event not found")
