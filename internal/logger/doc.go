// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The switch is a one-shot batch process; every service function accepts a
// context and logs through it, so a component name attached once at the top
// of the run tags every line below it.
package logger
