// Package notify delivers access codes and lifecycle messages to customers
// over email and chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/metrics"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// Dispatcher sends lifecycle messages. Every method reports whether the
// message was delivered on at least one channel; failures never propagate
// to the caller.
type Dispatcher interface {
	SendWelcome(ctx context.Context, acct *models.Account) bool
	SendExpirationWarning(ctx context.Context, acct *models.Account, daysLeft int) bool
	SendRenewalConfirmation(ctx context.Context, acct *models.Account) bool
	SendCode(ctx context.Context, acct *models.Account) bool
}

// ErrNoAddress is returned by a channel when the account has no address on it.
var ErrNoAddress = errors.New("no address for channel")

// ChannelNone names the attempt recorded when no channel accepts an account.
const ChannelNone = "none"

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Channel is one delivery mechanism.
type Channel interface {
	Name() string
	// Accepts reports whether the account can be reached on this channel.
	Accepts(acct *models.Account) bool
	Send(ctx context.Context, acct *models.Account, msg Message) error
}

// Recorder persists delivery attempts. storage.Store satisfies it.
type Recorder interface {
	RecordNotification(ctx context.Context, n models.NotificationAttempt) error
}

// MultiDispatcher fans a message out over all channels that accept the
// account and records every attempt.
type MultiDispatcher struct {
	channels  []Channel
	recorder  Recorder
	templates *Templates
	timeout   time.Duration
	log       logging.Logger
	now       func() time.Time
}

func NewMultiDispatcher(recorder Recorder, templates *Templates, timeout time.Duration, log logging.Logger, channels ...Channel) *MultiDispatcher {
	return &MultiDispatcher{
		channels:  channels,
		recorder:  recorder,
		templates: templates,
		timeout:   timeout,
		log:       log,
		now:       time.Now,
	}
}

func (d *MultiDispatcher) SendWelcome(ctx context.Context, acct *models.Account) bool {
	return d.dispatch(ctx, acct, models.NotifyWelcome, 0)
}

func (d *MultiDispatcher) SendExpirationWarning(ctx context.Context, acct *models.Account, daysLeft int) bool {
	return d.dispatch(ctx, acct, models.NotifyExpirationWarning, daysLeft)
}

func (d *MultiDispatcher) SendRenewalConfirmation(ctx context.Context, acct *models.Account) bool {
	return d.dispatch(ctx, acct, models.NotifyRenewal, 0)
}

func (d *MultiDispatcher) SendCode(ctx context.Context, acct *models.Account) bool {
	return d.dispatch(ctx, acct, models.NotifyResend, 0)
}

func (d *MultiDispatcher) dispatch(ctx context.Context, acct *models.Account, kind models.NotificationKind, daysLeft int) bool {
	msg, err := d.templates.Render(kind, acct, daysLeft)
	if err != nil {
		d.log.Error(ctx, "render notification", "kind", kind, "error", err)
		return false
	}

	delivered, tried := false, false
	for _, ch := range d.channels {
		if !ch.Accepts(acct) {
			continue
		}
		tried = true
		err := d.attempt(ctx, ch, acct, msg)
		d.record(ctx, acct, kind, ch.Name(), err)
		if err != nil {
			d.log.Warn(ctx, "notification failed", "kind", kind, "channel", ch.Name(), "account_id", acct.ID, "error", err)
			continue
		}
		d.log.Info(ctx, "notification sent", "kind", kind, "channel", ch.Name(), "account_id", acct.ID)
		delivered = true
	}
	if !tried {
		d.record(ctx, acct, kind, ChannelNone, ErrNoAddress)
		d.log.Warn(ctx, "no channel reaches account", "kind", kind, "account_id", acct.ID)
	}
	return delivered
}

func (d *MultiDispatcher) attempt(ctx context.Context, ch Channel, acct *models.Account, msg Message) (err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), r)
		}
	}()
	return ch.Send(ctx, acct, msg)
}

func (d *MultiDispatcher) record(ctx context.Context, acct *models.Account, kind models.NotificationKind, channel string, sendErr error) {
	n := models.NotificationAttempt{
		AccountID: acct.ID,
		Kind:      kind,
		Channel:   channel,
		Success:   sendErr == nil,
		CreatedAt: d.now().UTC(),
	}
	if sendErr != nil {
		n.Error = sendErr.Error()
	}
	metrics.RecordNotification(string(kind), channel, n.Success)
	if err := d.recorder.RecordNotification(context.WithoutCancel(ctx), n); err != nil {
		d.log.Error(ctx, "record notification attempt", "account_id", acct.ID, "error", err)
	}
}

// Noop delivers nothing. It is used when no channel is configured.
type Noop struct{}

func (Noop) SendWelcome(context.Context, *models.Account) bool                { return false }
func (Noop) SendExpirationWarning(context.Context, *models.Account, int) bool { return false }
func (Noop) SendRenewalConfirmation(context.Context, *models.Account) bool    { return false }
func (Noop) SendCode(context.Context, *models.Account) bool                   { return false }
