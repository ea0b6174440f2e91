package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds ambient parameters for the dead man's switch.
// Switch behavior (interval, warning budget, armed state) comes from the
// command line; this file only carries knobs that rarely change per run.
type Settings struct {
	// EmailsDir is the directory containing outbound message templates.
	EmailsDir string `yaml:"emails_dir"`
	// BotAuthor is the commit author identity used for switch-generated events.
	BotAuthor string `yaml:"bot_author"`
	// Remote is the git remote consulted for the owner identity and pushes.
	Remote string `yaml:"remote"`
	// SendDelay is the pause between consecutive outbound messages.
	// On the wire it is a Go duration string such as "5s" or "1m30s".
	SendDelay time.Duration `yaml:"send_delay"`
	// GitTimeout bounds every git invocation, a duration string on the wire.
	GitTimeout time.Duration `yaml:"git_timeout"`
	// LogLevel sets the minimum log level (debug, info, warn, error, fatal).
	LogLevel string `yaml:"log_level"`
}

// settingsDoc is the wire shape of Settings. Durations travel as strings
// because the yaml decoder only reads time.Duration from raw nanosecond
// integers, which nobody writes by hand.
type settingsDoc struct {
	EmailsDir  string `yaml:"emails_dir,omitempty"`
	BotAuthor  string `yaml:"bot_author,omitempty"`
	Remote     string `yaml:"remote,omitempty"`
	SendDelay  string `yaml:"send_delay,omitempty"`
	GitTimeout string `yaml:"git_timeout,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
}

// UnmarshalYAML decodes the wire shape and parses duration strings.
// Absent fields keep whatever the receiver already holds.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	var doc settingsDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	if doc.EmailsDir != "" {
		s.EmailsDir = doc.EmailsDir
	}

	if doc.BotAuthor != "" {
		s.BotAuthor = doc.BotAuthor
	}

	if doc.Remote != "" {
		s.Remote = doc.Remote
	}

	if doc.SendDelay != "" {
		delay, err := time.ParseDuration(doc.SendDelay)
		if err != nil {
			return fmt.Errorf("parse send_delay: %w", err)
		}

		s.SendDelay = delay
	}

	if doc.GitTimeout != "" {
		timeout, err := time.ParseDuration(doc.GitTimeout)
		if err != nil {
			return fmt.Errorf("parse git_timeout: %w", err)
		}

		s.GitTimeout = timeout
	}

	if doc.LogLevel != "" {
		s.LogLevel = doc.LogLevel
	}

	return nil
}

// MarshalYAML renders durations as strings so saved files stay editable.
func (s Settings) MarshalYAML() (any, error) {
	return settingsDoc{
		EmailsDir:  s.EmailsDir,
		BotAuthor:  s.BotAuthor,
		Remote:     s.Remote,
		SendDelay:  s.SendDelay.String(),
		GitTimeout: s.GitTimeout.String(),
		LogLevel:   s.LogLevel,
	}, nil
}

const (
	// DefaultSettingsFilename is the default filename for switch settings.
	DefaultSettingsFilename = "dead-mans-switch.yaml"

	// DefaultEmailsDir is the default directory holding message templates.
	DefaultEmailsDir = "emails"

	// DefaultBotAuthor is the default commit author for switch-generated events.
	DefaultBotAuthor = "dms_bot"

	// DefaultRemote is the default git remote name.
	DefaultRemote = "origin"

	// DefaultSendDelay is the default pause between outbound messages,
	// kept conservative to respect provider rate limits.
	DefaultSendDelay = 5 * time.Second

	// DefaultGitTimeout is the default deadline for a single git invocation.
	DefaultGitTimeout = time.Minute

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errSettingsNotSet is returned when a nil settings value is provided.
	errSettingsNotSet = errors.New("settings are not set")
	// errNegativeSendDelay is returned when the send delay is negative.
	errNegativeSendDelay = errors.New("send delay must not be negative")
	// errUnknownLogLevel is returned when the log level string is not recognized.
	errUnknownLogLevel = errors.New("unknown log level")
)

// knownLogLevels mirrors what logger.ParseLogLevel accepts.
var knownLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {}, "fatal": {},
}

// Default returns settings populated with the built-in defaults.
func Default() *Settings {
	return &Settings{
		EmailsDir:  DefaultEmailsDir,
		BotAuthor:  DefaultBotAuthor,
		Remote:     DefaultRemote,
		SendDelay:  DefaultSendDelay,
		GitTimeout: DefaultGitTimeout,
	}
}

// Load reads settings from the provided path and validates them.
// A missing file is not an error: the settings file is optional and
// absence yields defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultSettingsFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings := Default()
	if err := yaml.Unmarshal(contents, settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to the provided path.
func Save(path string, settings *Settings) error {
	if settings == nil {
		return errSettingsNotSet
	}

	if path == "" {
		path = DefaultSettingsFilename
	}

	if err := Validate(settings); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for blank fields.
func Validate(settings *Settings) error {
	if settings == nil {
		return errSettingsNotSet
	}

	if settings.EmailsDir == "" {
		settings.EmailsDir = DefaultEmailsDir
	}

	if settings.BotAuthor == "" {
		settings.BotAuthor = DefaultBotAuthor
	}

	if settings.Remote == "" {
		settings.Remote = DefaultRemote
	}

	if settings.SendDelay < 0 {
		return errNegativeSendDelay
	}

	if settings.GitTimeout <= 0 {
		settings.GitTimeout = DefaultGitTimeout
	}

	if settings.LogLevel != "" {
		if _, ok := knownLogLevels[settings.LogLevel]; !ok {
			return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
		}
	}

	return nil
}
