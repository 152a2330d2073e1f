package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/projectpulse/internal/model"
)

// IMAPMailer appends messages to a mailbox over IMAP.
type IMAPMailer struct {
	host     string
	port     string
	username string
	password string
	mailbox  string
	tls      bool
}

// NewIMAPMailer creates a mailer for the configured mailbox.
func NewIMAPMailer(cfg model.DigestConfig, password string) *IMAPMailer {
	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &IMAPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: password,
		mailbox:  mailbox,
		tls:      cfg.TLS,
	}
}

// connect dials the server and authenticates. The caller is responsible
// for logging out.
func (m *IMAPMailer) connect() (*imapclient.Client, error) {
	addr := m.host + ":" + m.port

	var client *imapclient.Client
	var err error
	if m.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.username, m.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", m.username, err)
	}
	return client, nil
}

// Deliver appends raw to the mailbox as an unseen message.
func (m *IMAPMailer) Deliver(ctx context.Context, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	// Unblock the pending command if the context is cancelled mid-way.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	cmd := client.Append(m.mailbox, int64(len(raw)), &imap.AppendOptions{Time: time.Now()})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("writing message to %s: %w", m.mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append to %s: %w", m.mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", m.mailbox, err)
	}
	return nil
}
