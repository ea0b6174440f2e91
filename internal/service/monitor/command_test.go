package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oedokumaci/dead-mans-switch/internal/domain/event"
	"github.com/oedokumaci/dead-mans-switch/internal/mail"
)

// fakeDispatcher records dispatched batches in place of an SMTP connection.
type fakeDispatcher struct {
	// from is the operator address reported by From.
	from string
	// err is the error returned by Dispatch.
	err error
	// batches records every batch passed to Dispatch.
	batches [][]*mail.Message
}

// From returns the configured operator address.
func (d *fakeDispatcher) From() string {
	return d.from
}

// Dispatch records the batch or fails with the configured error.
func (d *fakeDispatcher) Dispatch(_ context.Context, messages []*mail.Message) error {
	if d.err != nil {
		return d.err
	}

	d.batches = append(d.batches, messages)

	return nil
}

// testMessages builds a two-recipient batch the way LoadDir would.
func testMessages(t *testing.T) []*mail.Message {
	t.Helper()

	first, err := mail.NewMessage("alice@example.com", "Goodbye", "See the attic.")
	require.NoError(t, err)

	second, err := mail.NewMessage("bob@example.com", "Farewell", "Feed the cat.")
	require.NoError(t, err)

	return []*mail.Message{first, second}
}

// TestFinalizeDeath_DispatchFailureLeavesLogUntouched asserts a delivery
// failure surfaces and no terminal event is recorded, so the next run
// re-attempts the full final batch.
func TestFinalizeDeath_DispatchFailureLeavesLogUntouched(t *testing.T) {
	t.Parallel()

	log := &memoryLog{
		owner:  testOwner,
		events: []*event.Event{heartbeatAt(200)},
	}
	sw := newTestSwitch(t, Params{IntervalHours: 48, WarningBudget: 0, Armed: true}, log)

	sendErr := errors.New("connection reset")
	d := &fakeDispatcher{from: "owner@example.com", err: sendErr}

	err := finalizeDeath(context.Background(), sw, d, testMessages(t), false)
	require.ErrorIs(t, err, sendErr)
	require.Empty(t, log.appended)
}

// TestFinalizeDeath_RecordsTerminalAfterDelivery asserts the terminal event is
// appended only once the whole batch went out, untouched by any rewrite.
func TestFinalizeDeath_RecordsTerminalAfterDelivery(t *testing.T) {
	t.Parallel()

	log := &memoryLog{
		owner:  testOwner,
		events: []*event.Event{heartbeatAt(200)},
	}
	sw := newTestSwitch(t, Params{IntervalHours: 48, WarningBudget: 0, Armed: true}, log)

	d := &fakeDispatcher{from: "owner@example.com"}
	messages := testMessages(t)

	require.NoError(t, finalizeDeath(context.Background(), sw, d, messages, false))

	require.Len(t, d.batches, 1)
	require.Equal(t, "alice@example.com", d.batches[0][0].To)
	require.Equal(t, "Goodbye", d.batches[0][0].Subject)
	require.Equal(t, []string{event.TerminalMessage}, log.appended)
}

// TestFinalizeDeath_ManualRewritesToOperator asserts the manual trigger sends
// the batch to the operator with the manual wording before recording the
// terminal event.
func TestFinalizeDeath_ManualRewritesToOperator(t *testing.T) {
	t.Parallel()

	log := &memoryLog{
		owner:  testOwner,
		events: []*event.Event{heartbeatAt(10)},
	}
	sw := newTestSwitch(t, Params{IntervalHours: 48, WarningBudget: 0, Armed: true, ManualDispatch: true}, log)

	d := &fakeDispatcher{from: "owner@example.com"}
	messages := testMessages(t)

	require.NoError(t, finalizeDeath(context.Background(), sw, d, messages, true))

	require.Len(t, d.batches, 1)
	for _, m := range d.batches[0] {
		require.Equal(t, "owner@example.com", m.To)
		require.True(t, len(m.Subject) > len(manualSubjectPrefix))
		require.Equal(t, manualSubjectPrefix, m.Subject[:len(manualSubjectPrefix)])
		require.Equal(t, manualPreamble, m.Body[:len(manualPreamble)])
	}

	require.Equal(t, []string{event.TerminalMessage}, log.appended)
}

// TestFinalizeDeath_NoTemplatesStillRecords asserts an empty template set
// skips dispatch entirely while the terminal event is still appended.
func TestFinalizeDeath_NoTemplatesStillRecords(t *testing.T) {
	t.Parallel()

	log := &memoryLog{
		owner:  testOwner,
		events: []*event.Event{heartbeatAt(200)},
	}
	sw := newTestSwitch(t, Params{IntervalHours: 48, WarningBudget: 0, Armed: true}, log)

	d := &fakeDispatcher{from: "owner@example.com"}

	require.NoError(t, finalizeDeath(context.Background(), sw, d, nil, false))
	require.Empty(t, d.batches)
	require.Equal(t, []string{event.TerminalMessage}, log.appended)
}

// TestSelfTest_RewritesAndDispatches asserts the disarmed test run redirects
// every template to the operator with the test wording.
func TestSelfTest_RewritesAndDispatches(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{from: "owner@example.com"}
	messages := testMessages(t)

	require.NoError(t, selfTest(context.Background(), d, messages))

	require.Len(t, d.batches, 1)
	for _, m := range d.batches[0] {
		require.Equal(t, "owner@example.com", m.To)
		require.Equal(t, testSubjectPrefix, m.Subject[:len(testSubjectPrefix)])
		require.Equal(t, testPreamble, m.Body[:len(testPreamble)])
	}
}
