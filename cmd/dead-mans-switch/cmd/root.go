package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oedokumaci/dead-mans-switch/internal/service/monitor"
	"github.com/oedokumaci/dead-mans-switch/internal/version"
)

var (
	// armed enables real side effects; without it the run is a self-test.
	armed bool
	// manualDispatch redirects terminal notifications to the operator.
	manualDispatch bool

	// rootCmd represents the base command for one switch run.
	rootCmd = &cobra.Command{
		Use:   "dead-mans-switch <interval-hours> <warning-budget>",
		Short: "Monitor repository activity and escalate on silence.",
		Long: `Dead man's switch over a git commit history.

Each run recomputes the lifecycle state from the commit log: recent owner
activity means nothing happens; a breached interval spends one warning
commit per run; an exhausted warning budget dispatches the final emails
and records a terminal commit. The log is the only persisted state, so
runs are idempotent and safe to repeat.

Without --armed the run is a self-test: every template is delivered to the
operator's own address and the log is never written. --manual-dispatch
relaxes the interval floor and redirects terminal notifications to the
operator, for safe end-to-end testing.

Credentials come from the MY_EMAIL and MY_PASSWORD environment variables.
Message templates are .txt files in the emails directory (To:, Subject:,
blank line, body) with ${NAME} placeholders filled from the environment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// One run is a short batch; still honor termination signals
			// so git and SMTP calls are interrupted cleanly.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			intervalHours, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("interval hours %q is not a number: %w", args[0], err)
			}

			warningBudget, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("warning budget %q is not an integer: %w", args[1], err)
			}

			options := &monitor.Options{
				Params: monitor.Params{
					IntervalHours:  intervalHours,
					WarningBudget:  warningBudget,
					Armed:          armed,
					ManualDispatch: manualDispatch,
				},
			}

			return monitor.Run(ctx, options)
		},
	}
)

// Execute runs the dead-mans-switch CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().BoolVar(&armed, "armed", false, "arm the switch for live operation (default is test mode)")
	rootCmd.Flags().BoolVar(&manualDispatch, "manual-dispatch", false, "trigger terminal notifications to the operator only")
}
