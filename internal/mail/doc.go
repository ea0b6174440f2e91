// Package mail covers the outbound side of the switch: message templates
// and SMTP delivery.
//
// Templates are plain .txt files with To: and Subject: lines followed by a
// free-text body; ${NAME} placeholders are filled from the environment at
// load time. The Sender owns one scoped SMTP session per dispatch batch:
// connect, send everything with a rate-limiting delay, release on every
// exit path. Authentication, connection and provider-table errors are
// distinguished sentinels so the caller can report them precisely.
package mail
