package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewSenderFromEnv_MissingCredentials verifies both credential variables are required.
func TestNewSenderFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvPassword, "")

	_, err := NewSenderFromEnv(0)
	require.ErrorIs(t, err, ErrMissingCredentials)
	require.ErrorContains(t, err, EnvAddress)

	t.Setenv(EnvAddress, "operator@gmail.com")

	_, err = NewSenderFromEnv(0)
	require.ErrorIs(t, err, ErrMissingCredentials)
	require.ErrorContains(t, err, EnvPassword)
}

// TestNewSenderFromEnv_UnsupportedProvider rejects sender domains outside the table.
func TestNewSenderFromEnv_UnsupportedProvider(t *testing.T) {
	t.Setenv(EnvAddress, "operator@example.org")
	t.Setenv(EnvPassword, "hunter2")

	_, err := NewSenderFromEnv(0)
	require.ErrorIs(t, err, ErrUnsupportedProvider)
	require.ErrorContains(t, err, "example.org")
}

// TestNewSenderFromEnv_ResolvesProvider checks the happy path and From().
func TestNewSenderFromEnv_ResolvesProvider(t *testing.T) {
	t.Setenv(EnvAddress, "operator@hotmail.com")
	t.Setenv(EnvPassword, "hunter2")

	s, err := NewSenderFromEnv(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, "operator@hotmail.com", s.From())
	// hotmail shares outlook's endpoint.
	require.Equal(t, "smtp-mail.outlook.com", s.provider.host)
	require.Equal(t, 587, s.provider.port)
}

// TestSendAll_RequiresConnection ensures a batch on a closed sender fails with ErrConnection.
func TestSendAll_RequiresConnection(t *testing.T) {
	t.Setenv(EnvAddress, "operator@gmail.com")
	t.Setenv(EnvPassword, "hunter2")

	s, err := NewSenderFromEnv(0)
	require.NoError(t, err)

	m, err := NewMessage("friend@gmail.com", "Hello", "body")
	require.NoError(t, err)

	err = s.SendAll(context.Background(), []*Message{m})
	require.ErrorIs(t, err, ErrConnection)
}

// TestBuildMIMEMessage checks the wire format headers and CRLF separation.
func TestBuildMIMEMessage(t *testing.T) {
	t.Parallel()

	m := &Message{
		To:      "friend@gmail.com",
		Subject: "Hello",
		Body:    "line one\nline two",
	}

	wire := string(buildMIMEMessage("operator@gmail.com", m))
	require.Contains(t, wire, "From: operator@gmail.com\r\n")
	require.Contains(t, wire, "To: friend@gmail.com\r\n")
	require.Contains(t, wire, "Subject: Hello\r\n")
	require.Contains(t, wire, "Content-Type: text/plain; charset=UTF-8\r\n")
	require.Contains(t, wire, "\r\n\r\nline one\nline two\r\n")
}

// TestRewriteForOperator verifies the self-test transform touches every message uniformly.
func TestRewriteForOperator(t *testing.T) {
	t.Parallel()

	messages := []*Message{
		{To: "a@x.com", Subject: "One", Body: "first"},
		{To: "b@x.com", Subject: "Two", Body: "second"},
	}

	RewriteForOperator(messages, "operator@gmail.com", "Test: ", "Disclaimer.\n\n")

	for _, m := range messages {
		require.Equal(t, "operator@gmail.com", m.To)
	}

	require.Equal(t, "Test: One", messages[0].Subject)
	require.Equal(t, "Disclaimer.\n\nsecond", messages[1].Body)
}
