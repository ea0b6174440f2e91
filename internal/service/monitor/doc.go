// Package monitor implements the dead man's switch state machine and the
// run orchestration around it.
//
// Switch derives one of five lifecycle states from the event log,
// parameters and wall-clock time on every invocation. The machine holds no
// state between runs; durability lives entirely in the log, so a crashed or
// repeated run re-derives the same decision. Run performs the single
// side-effect batch a state authorizes: a self-test mail-out when disarmed,
// a warning event on breach, or final notifications followed by the
// terminal event.
package monitor
