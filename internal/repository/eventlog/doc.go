// Package eventlog implements access to the append-only activity log.
//
// The Log interface exposes offset-based reads, durable appends and owner
// identity resolution. GitLog is the production implementation: it shells
// out to the git binary, so the switch needs no state store beyond the
// repository it already monitors.
package eventlog
