package mail

import (
	"fmt"
	"regexp"
)

// addressPattern is the minimal local@domain.tld shape accepted for recipients.
var addressPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Message is one outbound notification, built fresh from a template each run
// and never persisted.
type Message struct {
	// To is the validated recipient address.
	To string
	// Subject is the subject line.
	Subject string
	// Body is the plain-text body after variable substitution.
	Body string
}

// NewMessage validates the recipient and constructs a message.
func NewMessage(to, subject, body string) (*Message, error) {
	if !addressPattern.MatchString(to) {
		return nil, fmt.Errorf("invalid recipient address: %q", to)
	}

	return &Message{
		To:      to,
		Subject: subject,
		Body:    body,
	}, nil
}

// RewriteForOperator redirects every message to the operator's own address,
// tags the subject and prepends a disclaimer. It is the single self-test
// transform used for both the disarmed test run and the manual trigger;
// only the wording differs between the two callers.
func RewriteForOperator(messages []*Message, operator, subjectPrefix, preamble string) {
	for _, m := range messages {
		m.To = operator
		m.Subject = subjectPrefix + m.Subject
		m.Body = preamble + m.Body
	}
}
