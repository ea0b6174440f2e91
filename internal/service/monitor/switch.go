package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oedokumaci/dead-mans-switch/internal/domain/event"
	"github.com/oedokumaci/dead-mans-switch/internal/logger"
	"github.com/oedokumaci/dead-mans-switch/internal/repository/eventlog"
)

// State is the lifecycle state computed for one run. It is re-derived from
// the event log on every invocation; nothing is cached between runs.
type State int

const (
	// StateDisarmed means the switch runs in safe test mode.
	StateDisarmed State = iota
	// StateAlive means the owner showed activity within the interval.
	StateAlive
	// StateIssueWarning means the interval is breached and warnings remain.
	StateIssueWarning
	// StatePassedAway means the warning budget is exhausted.
	StatePassedAway
	// StateAlreadyDeclaredDead means a terminal event already exists.
	StateAlreadyDeclaredDead
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "disarmed"
	case StateAlive:
		return "alive"
	case StateIssueWarning:
		return "issue warning"
	case StatePassedAway:
		return "passed away"
	case StateAlreadyDeclaredDead:
		return "already declared dead"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MinIntervalHours is the scheduled heartbeat-check granularity. Intervals
// below it cannot be observed by a coarser cron schedule, so they are
// rejected unless the run is a manual dispatch.
const MinIntervalHours = 24

var (
	// errIntervalTooShort is returned when the interval undercuts the check granularity.
	errIntervalTooShort = errors.New("heartbeat interval is shorter than the check granularity")
	// errNegativeBudget is returned for a negative warning budget.
	errNegativeBudget = errors.New("warning budget must be zero or greater")
	// errEmptyLog is returned when the activity log has no events at all.
	errEmptyLog = errors.New("activity log is empty")
)

// Params are the switch parameters supplied on the command line.
type Params struct {
	// IntervalHours is the minimum gap, in hours, considered alive.
	IntervalHours float64
	// WarningBudget is the number of warnings before terminal escalation.
	WarningBudget int
	// Armed enables real side effects; false forces the test state.
	Armed bool
	// ManualDispatch relaxes the interval floor and redirects terminal
	// notifications to the operator. It does not alter the state logic.
	ManualDispatch bool
}

// Validate rejects parameter combinations before any log access.
func (p *Params) Validate() error {
	if !p.ManualDispatch && p.IntervalHours < MinIntervalHours {
		return fmt.Errorf("%w: %.2f hours, minimum is %d (align the cron schedule first if a shorter interval is needed)",
			errIntervalTooShort, p.IntervalHours, MinIntervalHours)
	}

	if p.WarningBudget < 0 {
		return fmt.Errorf("%w: got %d", errNegativeBudget, p.WarningBudget)
	}

	return nil
}

// reckoning is the outcome of the warning-history walk: either a terminal
// event was already recorded, or a plain count of warnings left to spend.
type reckoning struct {
	// remaining counts warnings left, seeded from the budget.
	remaining int
	// alreadyDeclared is set when a terminal event precedes any heartbeat.
	alreadyDeclared bool
	// newest is the most recent event, nil when the log is empty. The walk
	// reads it anyway, so it is handed back instead of re-fetched.
	newest *event.Event
}

// Switch computes the lifecycle state from the event log, parameters and
// wall-clock time, and appends the events its decisions require.
type Switch struct {
	// params are the validated run parameters.
	params Params
	// log is the activity log accessor.
	log eventlog.Log
	// now supplies wall-clock time, replaceable in tests.
	now func() time.Time
}

// Option configures switch behaviour.
type Option func(*Switch)

// WithClock overrides the wall-clock source.
func WithClock(now func() time.Time) Option {
	return func(s *Switch) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSwitch validates parameters and builds the state machine.
func NewSwitch(params Params, log eventlog.Log, opts ...Option) (*Switch, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &Switch{
		params: params,
		log:    log,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Evaluate computes the current state. The order matters: disarmed
// short-circuits everything, a recorded terminal event beats any timing,
// and only then is the most recent event's age compared to the interval.
func (s *Switch) Evaluate(ctx context.Context) (State, error) {
	if !s.params.Armed {
		return StateDisarmed, nil
	}

	rk, err := s.reckon(ctx)
	if err != nil {
		return 0, err
	}

	if rk.alreadyDeclared {
		return StateAlreadyDeclaredDead, nil
	}

	if rk.newest == nil {
		return 0, errEmptyLog
	}

	hoursSince := rk.newest.HoursSince(s.now())
	logger.InfoKV(ctx, "Most recent event",
		"event", rk.newest.String(), "hours_since", fmt.Sprintf("%.2f", hoursSince))

	if hoursSince <= s.params.IntervalHours {
		return StateAlive, nil
	}

	if rk.remaining <= 0 {
		return StatePassedAway, nil
	}

	return StateIssueWarning, nil
}

// reckon walks the log newest-first, at most WarningBudget events deep,
// counting prior warnings. A heartbeat stops the walk: it invalidates all
// older warnings for counting purposes. A terminal event marks the owner as
// already declared dead. Running out of history is not an error. Any other
// non-owner event means the history cannot be trusted and the run must abort.
// The newest event is fetched exactly once and handed back for the timing check.
func (s *Switch) reckon(ctx context.Context) (reckoning, error) {
	rk := reckoning{remaining: s.params.WarningBudget}

	newest, err := s.log.FetchRecent(ctx, 0)
	if err != nil {
		if errors.Is(err, eventlog.ErrNotFound) {
			return rk, nil
		}

		return rk, fmt.Errorf("fetch most recent event: %w", err)
	}

	rk.newest = newest

	if s.params.WarningBudget == 0 {
		return rk, nil
	}

	owner, err := s.log.OwnerIdentity(ctx)
	if err != nil {
		return rk, fmt.Errorf("resolve owner: %w", err)
	}

	for skip := 0; skip < s.params.WarningBudget; skip++ {
		e := newest

		if skip > 0 {
			next, err := s.log.FetchRecent(ctx, skip)
			if err != nil {
				if errors.Is(err, eventlog.ErrNotFound) {
					return rk, nil
				}

				return rk, fmt.Errorf("fetch event at offset %d: %w", skip, err)
			}

			e = next
		}

		label, err := e.Classify(owner)
		if err != nil {
			return rk, err
		}

		switch label {
		case event.Heartbeat:
			return rk, nil
		case event.Warning:
			rk.remaining--
		case event.Terminal:
			rk.alreadyDeclared = true

			return rk, nil
		}
	}

	return rk, nil
}

// IssueWarning appends one warning event timestamped now.
func (s *Switch) IssueWarning(ctx context.Context) error {
	if err := s.log.Append(ctx, event.WarningMessage, s.now().UTC()); err != nil {
		return fmt.Errorf("record warning: %w", err)
	}

	return nil
}

// DeclareDead appends the terminal event timestamped now. It is called only
// after final notifications were dispatched: a dispatch failure must leave
// the log unchanged so the next run retries delivery (at-least-once).
func (s *Switch) DeclareDead(ctx context.Context) error {
	if err := s.log.Append(ctx, event.TerminalMessage, s.now().UTC()); err != nil {
		return fmt.Errorf("record terminal event: %w", err)
	}

	return nil
}
