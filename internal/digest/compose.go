// Package digest delivers a summary of notifications to an IMAP mailbox.
package digest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/projectpulse/internal/model"
)

// Digest is the content of one digest message.
type Digest struct {
	From          string
	To            string
	GeneratedAt   time.Time
	Notifications []model.Notification
}

// Subject returns the subject line of d.
func (d Digest) Subject() string {
	warnings := 0
	for _, n := range d.Notifications {
		if n.Type != model.NotificationInfo {
			warnings++
		}
	}
	subject := fmt.Sprintf("[projectpulse] %d notification(s)", len(d.Notifications))
	if warnings > 0 {
		subject += fmt.Sprintf(", %d need attention", warnings)
	}
	return subject
}

// Body renders the plain text body of d.
func (d Digest) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Notifications as of %s\n\n", d.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	for _, n := range d.Notifications {
		fmt.Fprintf(&b, "[%s] %s\n    %s\n", strings.ToUpper(string(n.Type)), n.Title, n.Message)
		if n.Related != nil {
			fmt.Fprintf(&b, "    (%s #%d)\n", n.Related.Kind, n.Related.ID)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Compose writes d as an RFC 5322 message to w.
func Compose(w io.Writer, d Digest) error {
	from, err := mail.ParseAddress(d.From)
	if err != nil {
		return fmt.Errorf("parsing from address %q: %w", d.From, err)
	}
	to, err := mail.ParseAddressList(d.To)
	if err != nil {
		return fmt.Errorf("parsing to address %q: %w", d.To, err)
	}

	var h mail.Header
	h.SetDate(d.GeneratedAt)
	h.SetSubject(d.Subject())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating message id: %w", err)
	}

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(body, d.Body()); err != nil {
		body.Close()
		return fmt.Errorf("writing message body: %w", err)
	}
	return body.Close()
}

// Render returns d as raw message bytes.
func Render(d Digest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Compose(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
