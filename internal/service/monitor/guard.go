package monitor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ps "github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another switch process is active.
// Concurrent switches against one log are unsupported: each run must finish
// its append before the next run reads.
var ErrAlreadyRunning = errors.New("another instance is already running")

// EnsureSingleInstance refuses to proceed when a process with the same
// executable name is already running.
func EnsureSingleInstance() error {
	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	return checkSingleInstance(processes, filepath.Base(executable), os.Getpid())
}

// checkSingleInstance scans the process list for a namesake that is not us.
func checkSingleInstance(processes []ps.Process, executable string, selfPID int) error {
	for _, p := range processes {
		if p.Pid() == selfPID {
			continue
		}

		if p.Executable() == executable {
			return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, executable, p.Pid())
		}
	}

	return nil
}
