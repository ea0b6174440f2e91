package monitor

import (
	"context"
	"fmt"

	"github.com/oedokumaci/dead-mans-switch/internal/config"
	"github.com/oedokumaci/dead-mans-switch/internal/logger"
	"github.com/oedokumaci/dead-mans-switch/internal/mail"
	"github.com/oedokumaci/dead-mans-switch/internal/repository/eventlog"
)

// Options controls one switch run.
type Options struct {
	// SettingsPath specifies the path to the settings YAML file.
	SettingsPath string
	// RepoDir is the monitored repository working directory.
	RepoDir string
	// Params are the command-line switch parameters.
	Params Params
}

// Self-test wording. The test-mode and manual-trigger runs share one rewrite
// transform and differ only in these strings.
const (
	testSubjectPrefix = "Dead Man's Switch Test Email: "
	testPreamble      = "Dear DMS User,\n\n" +
		"This is a test email to check if the dead man's switch is working.\n" +
		"Once you arm the switch, you will not receive these scheduled test emails.\n\n"

	manualSubjectPrefix = "Dead Man's Switch Manually Triggered: "
	manualPreamble      = "Dear DMS User,\n\n" +
		"Dead Man's Switch was armed and manually triggered.\n" +
		"Don't worry, we only sent the emails to you.\n\n"
)

// Run executes one full switch cycle: compute the state, then perform the
// single side-effect batch that state authorizes.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "dead-mans-switch")

	// Load ambient settings; absence of the file yields defaults.
	settings, err := config.Load(opts.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if settings.LogLevel != "" {
		if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
			logger.SetLevel(level)
		}
	}

	// Successive runs serialize through the log's append ordering, which
	// only holds if runs do not overlap.
	if err := EnsureSingleInstance(); err != nil {
		return err
	}

	repoDir := opts.RepoDir
	if repoDir == "" {
		repoDir = "."
	}

	log := eventlog.NewGitLog(repoDir, settings.Remote, settings.BotAuthor, settings.GitTimeout)

	sw, err := NewSwitch(opts.Params, log)
	if err != nil {
		return err
	}

	state, err := sw.Evaluate(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Switch state computed", "state", state.String())

	switch state {
	case StateDisarmed:
		return runSelfTest(ctx, settings)
	case StateAlive:
		logger.Info(ctx, "No action needed")

		return nil
	case StateIssueWarning:
		return sw.IssueWarning(ctx)
	case StatePassedAway:
		return declareDead(ctx, settings, sw, opts.Params.ManualDispatch)
	case StateAlreadyDeclaredDead:
		logger.Info(ctx, "Owner is already declared dead")

		return nil
	default:
		return fmt.Errorf("unhandled state %s", state)
	}
}

// dispatcher delivers one batch of outbound messages. It is the seam
// between run orchestration and the SMTP transport, so the ordering
// guarantees around the terminal event stay testable without a server.
type dispatcher interface {
	// From returns the operator address self-test batches are rewritten to.
	From() string
	// Dispatch sends the batch over one scoped connection.
	Dispatch(ctx context.Context, messages []*mail.Message) error
}

// smtpDispatcher adapts mail.Sender to the dispatcher seam.
type smtpDispatcher struct {
	// sender is the underlying SMTP transport.
	sender *mail.Sender
}

// From returns the operator address the sender authenticates as.
func (d *smtpDispatcher) From() string {
	return d.sender.From()
}

// Dispatch sends a batch over one scoped connection, released on every path.
func (d *smtpDispatcher) Dispatch(ctx context.Context, messages []*mail.Message) error {
	if err := d.sender.Connect(ctx); err != nil {
		return err
	}
	defer d.sender.Close()

	return d.sender.SendAll(ctx, messages)
}

// runSelfTest delivers every template to the operator with the test wording.
// No event is appended: the disarmed path never touches the log.
func runSelfTest(ctx context.Context, settings *config.Settings) error {
	messages, err := mail.LoadDir(settings.EmailsDir)
	if err != nil {
		return err
	}

	if len(messages) == 0 {
		logger.Infof(ctx, "No .txt templates found in %s", settings.EmailsDir)

		return nil
	}

	sender, err := mail.NewSenderFromEnv(settings.SendDelay)
	if err != nil {
		return err
	}

	return selfTest(ctx, &smtpDispatcher{sender: sender}, messages)
}

// selfTest rewrites the batch to the operator and delivers it.
func selfTest(ctx context.Context, d dispatcher, messages []*mail.Message) error {
	mail.RewriteForOperator(messages, d.From(), testSubjectPrefix, testPreamble)

	return d.Dispatch(ctx, messages)
}

// declareDead loads the templates and transport, then runs the terminal batch.
func declareDead(ctx context.Context, settings *config.Settings, sw *Switch, manual bool) error {
	messages, err := mail.LoadDir(settings.EmailsDir)
	if err != nil {
		return err
	}

	// Credential and provider mistakes must surface before any network
	// activity and before the terminal event exists.
	sender, err := mail.NewSenderFromEnv(settings.SendDelay)
	if err != nil {
		return err
	}

	return finalizeDeath(ctx, sw, &smtpDispatcher{sender: sender}, messages, manual)
}

// finalizeDeath dispatches the final notifications and only then records the
// terminal event. A dispatch failure leaves the log unchanged so the next
// run re-attempts full delivery (at-least-once on partial failure).
func finalizeDeath(ctx context.Context, sw *Switch, d dispatcher, messages []*mail.Message, manual bool) error {
	if manual {
		mail.RewriteForOperator(messages, d.From(), manualSubjectPrefix, manualPreamble)
	}

	if len(messages) > 0 {
		if err := d.Dispatch(ctx, messages); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Final notifications dispatched", "count", len(messages))
	}

	return sw.DeclareDead(ctx)
}
