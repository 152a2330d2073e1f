package digest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
	"github.com/nhle/projectpulse/tests/testutil"
)

var generated = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func sample() Digest {
	return Digest{
		From:        "Pulse <pulse@example.com>",
		To:          "pm@example.com",
		GeneratedAt: generated,
		Notifications: []model.Notification{
			{
				Title: "Budget warning", Type: model.NotificationError,
				Message: "Project 'Portal' has used 120.0% of its budget (1200.00 of 1000.00).",
				Related: &model.Ref{ID: 3, Kind: model.RelatedBudgetWarning},
			},
			{Title: "Project deadline approaching", Type: model.NotificationInfo, Message: "Project 'CRM' is due in 3 days. Deadline: 2026-03-13."},
		},
	}
}

func TestCompose_ParsesBack(t *testing.T) {
	raw, err := Render(sample())
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer mr.Close()

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "[projectpulse] 2 notification(s), 1 need attention", subject)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "pulse@example.com", from[0].Address)

	date, err := mr.Header.Date()
	require.NoError(t, err)
	assert.True(t, generated.Equal(date))

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "[ERROR] Budget warning")
	assert.Contains(t, string(body), "(budget_warning #3)")
	assert.Contains(t, string(body), "[INFO] Project deadline approaching")
}

func TestCompose_BadAddress(t *testing.T) {
	d := sample()
	d.To = "not an address"
	_, err := Render(d)
	assert.Error(t, err)
}

type captureSender struct {
	raw [][]byte
	err error
}

func (c *captureSender) Deliver(_ context.Context, raw []byte) error {
	if c.err != nil {
		return c.err
	}
	c.raw = append(c.raw, raw)
	return nil
}

func newDigestService(t *testing.T, sender Sender) (*Service, *notify.Service) {
	t.Helper()
	s := testutil.NewTestStore(t)
	notifications := notify.NewService(s, nil)
	svc := NewService(notifications, sender, model.DigestConfig{
		From: "pulse@example.com",
		To:   "pm@example.com",
	}, nil)
	svc.now = func() time.Time { return generated }
	return svc, notifications
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	sender := &captureSender{}
	svc, notifications := newDigestService(t, sender)

	n, err := svc.Send(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sender.raw, "nothing unread, nothing sent")

	_, err = notifications.Create(ctx, notify.Request{Title: "Inactive task", Message: "Task 'API' idle", Type: model.NotificationWarning})
	require.NoError(t, err)
	read, err := notifications.Create(ctx, notify.Request{Title: "Old", Message: "already seen"})
	require.NoError(t, err)
	require.NoError(t, notifications.MarkRead(ctx, read.ID))

	n, err = svc.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, sender.raw, 1)
	assert.Contains(t, string(sender.raw[0]), "Inactive task")
	assert.NotContains(t, string(sender.raw[0]), "already seen")
}

func TestService_SendFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("mailbox full")
	svc, notifications := newDigestService(t, &captureSender{err: boom})
	_, err := notifications.Create(ctx, notify.Request{Title: "t", Message: "m"})
	require.NoError(t, err)

	_, err = svc.Send(ctx)
	assert.ErrorIs(t, err, boom)

	svc.to = ""
	_, err = svc.Send(ctx)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_SendSkipsDelivered(t *testing.T) {
	ctx := context.Background()
	sender := &captureSender{err: errors.New("connection reset")}
	svc, notifications := newDigestService(t, sender)

	_, err := notifications.Create(ctx, notify.Request{Title: "First run", Message: "overdue"})
	require.NoError(t, err)
	_, err = svc.Send(ctx)
	require.Error(t, err)

	sender.err = nil
	n, err := svc.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a failed delivery is retried")

	n, err = svc.Send(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, sender.raw, 1)

	_, err = notifications.Create(ctx, notify.Request{Title: "Second run", Message: "budget"})
	require.NoError(t, err)
	n, err = svc.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, sender.raw, 2)
	assert.Contains(t, string(sender.raw[1]), "Second run")
	assert.NotContains(t, string(sender.raw[1]), "First run")
}
