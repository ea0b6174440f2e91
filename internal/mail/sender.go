package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"sort"
	"strings"
	"time"
)

// Environment variables carrying the transport credentials.
const (
	// EnvAddress names the operator's own address, used for authentication
	// and as the sender of every outbound message.
	EnvAddress = "MY_EMAIL"
	// EnvPassword names the SMTP password (an app password for gmail).
	EnvPassword = "MY_PASSWORD"
)

// dialTimeout bounds the TCP connection attempt.
const dialTimeout = 30 * time.Second

// provider holds the SMTP endpoint for one known mail domain.
type provider struct {
	host string
	port int
}

// providers maps recipient domains to SMTP endpoints.
// All known providers accept STARTTLS on the submission port.
var providers = map[string]provider{
	"gmail.com":   {host: "smtp.gmail.com", port: 587},
	"icloud.com":  {host: "smtp.mail.me.com", port: 587},
	"outlook.com": {host: "smtp-mail.outlook.com", port: 587},
	"yahoo.com":   {host: "smtp.mail.yahoo.com", port: 587},
	"hotmail.com": {host: "smtp-mail.outlook.com", port: 587},
}

var (
	// ErrMissingCredentials is returned when either credential variable is unset.
	ErrMissingCredentials = errors.New("transport credentials are not set")
	// ErrUnsupportedProvider is returned for sender domains outside the provider table.
	ErrUnsupportedProvider = errors.New("unsupported email provider")
	// ErrConnection indicates a failure to reach or negotiate with the server.
	ErrConnection = errors.New("connection to email server failed")
	// ErrAuthentication indicates rejected credentials.
	ErrAuthentication = errors.New("email server authentication failed")
)

// Sender delivers messages over a single scoped SMTP connection:
// dial on Connect, send the whole batch, release via Close on every path.
type Sender struct {
	// from is the operator address used for auth and the From header.
	from string
	// password is the SMTP credential.
	password string
	// provider is the endpoint resolved from the operator's domain.
	provider provider
	// delay is the pause between consecutive sends.
	delay time.Duration

	// client is the live SMTP session, nil until Connect.
	client *smtp.Client
}

// NewSenderFromEnv builds a sender from MY_EMAIL / MY_PASSWORD and resolves
// the provider endpoint. No network activity happens here, so credential and
// provider mistakes surface before anything is dialed.
func NewSenderFromEnv(delay time.Duration) (*Sender, error) {
	address := os.Getenv(EnvAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingCredentials, EnvAddress)
	}

	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingCredentials, EnvPassword)
	}

	endpoint, err := resolveProvider(address)
	if err != nil {
		return nil, err
	}

	return &Sender{
		from:     address,
		password: password,
		provider: endpoint,
		delay:    delay,
	}, nil
}

// resolveProvider maps the address domain to a known SMTP endpoint.
func resolveProvider(address string) (provider, error) {
	domain := strings.ToLower(address[strings.LastIndexByte(address, '@')+1:])

	endpoint, ok := providers[domain]
	if !ok {
		return provider{}, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedProvider, domain, strings.Join(supportedDomains(), ", "))
	}

	return endpoint, nil
}

// supportedDomains lists the provider table keys in stable order.
func supportedDomains() []string {
	domains := make([]string, 0, len(providers))
	for domain := range providers {
		domains = append(domains, domain)
	}

	sort.Strings(domains)

	return domains
}

// From returns the operator address the sender authenticates as.
func (s *Sender) From() string {
	return s.from
}

// Connect dials the provider, upgrades to TLS and authenticates.
func (s *Sender) Connect(ctx context.Context) error {
	addr := net.JoinHostPort(s.provider.host, fmt.Sprint(s.provider.port))
	dialer := &net.Dialer{Timeout: dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnection, addr, err)
	}

	client, err := smtp.NewClient(conn, s.provider.host)
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("%w: greet %s: %w", ErrConnection, addr, err)
	}

	//nolint:exhaustruct // Default TLS settings are fine, only SNI is needed.
	if err := client.StartTLS(&tls.Config{ServerName: s.provider.host}); err != nil {
		_ = client.Close()

		return fmt.Errorf("%w: starttls: %w", ErrConnection, err)
	}

	auth := smtp.PlainAuth("", s.from, s.password, s.provider.host)
	if err := client.Auth(auth); err != nil {
		_ = client.Close()

		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	s.client = client

	return nil
}

// Close releases the SMTP session. Quit errors on an already-broken
// connection are deliberately ignored; Close must be safe on every exit path.
func (s *Sender) Close() {
	if s.client == nil {
		return
	}

	_ = s.client.Quit()
	s.client = nil
}

// SendAll delivers messages sequentially over the open session with the
// configured delay between sends. The first failure stops the batch.
func (s *Sender) SendAll(ctx context.Context, messages []*Message) error {
	for i, m := range messages {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}

		if err := s.send(m); err != nil {
			return err
		}
	}

	return nil
}

// send delivers one message over the open session.
func (s *Sender) send(m *Message) error {
	if s.client == nil {
		return fmt.Errorf("%w: sender is not connected", ErrConnection)
	}

	if err := s.client.Mail(s.from); err != nil {
		return fmt.Errorf("set sender for %s: %w", m.To, err)
	}

	if err := s.client.Rcpt(m.To); err != nil {
		return fmt.Errorf("add recipient %s: %w", m.To, err)
	}

	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("open data for %s: %w", m.To, err)
	}

	if _, err := w.Write(buildMIMEMessage(s.from, m)); err != nil {
		_ = w.Close()

		return fmt.Errorf("write message for %s: %w", m.To, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message for %s: %w", m.To, err)
	}

	return nil
}

// pause waits out the inter-send delay unless the context ends first.
func (s *Sender) pause(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// buildMIMEMessage renders the headers and plain-text body on the wire.
func buildMIMEMessage(from string, m *Message) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	b.WriteString("\r\n")

	return []byte(b.String())
}
