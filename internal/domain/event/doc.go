// Package event contains the core domain type for the activity log.
//
// An Event is one commit in the monitored repository. Its meaning — owner
// heartbeat, switch warning, or terminal declaration — is derived from the
// author identity and reserved message literals rather than stored, because
// the log doubles as both the activity signal and the switch's own state.
package event
