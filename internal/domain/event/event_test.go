package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestClassify verifies label derivation from author identity and message prefixes.
func TestClassify(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	owner := "oedokumaci"

	// Owner-authored events are heartbeats no matter the message.
	e := &Event{Message: "warning issued", Author: owner, Timestamp: now}

	label, err := e.Classify(owner)
	require.NoError(t, err)
	require.Equal(t, Heartbeat, label)

	// Bot warning, including suffixed variants.
	e = &Event{Message: "warning issued (1 of 2)", Author: "dms_bot", Timestamp: now}

	label, err = e.Classify(owner)
	require.NoError(t, err)
	require.Equal(t, Warning, label)

	// Bot terminal.
	e = &Event{Message: "passed away", Author: "dms_bot", Timestamp: now}

	label, err = e.Classify(owner)
	require.NoError(t, err)
	require.Equal(t, Terminal, label)

	// Anything else from a non-owner corrupts the history.
	e = &Event{Message: "drive-by commit", Author: "stranger", Timestamp: now}

	_, err = e.Classify(owner)
	require.ErrorIs(t, err, ErrUnrecognized)
	require.Contains(t, err.Error(), "stranger")
}

// TestHoursSince checks elapsed-hours arithmetic including fractional values.
func TestHoursSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := &Event{
		Message:   "work",
		Author:    "oedokumaci",
		Timestamp: now.Add(-150 * time.Minute),
	}

	require.InDelta(t, 2.5, e.HoursSince(now), 1e-9)
}

// TestLabelString covers the diagnostic names.
func TestLabelString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "heartbeat", Heartbeat.String())
	require.Equal(t, "warning", Warning.String())
	require.Equal(t, "terminal", Terminal.String())
}
