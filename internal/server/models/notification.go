package models

import "time"

type NotificationKind string

const (
	NotifyWelcome           NotificationKind = "welcome"
	NotifyExpirationWarning NotificationKind = "expiration_warning"
	NotifyRenewal           NotificationKind = "renewal"
	NotifyResend            NotificationKind = "resend"
)

// NotificationAttempt records one delivery attempt on one channel.
type NotificationAttempt struct {
	ID        string           `db:"id"`
	AccountID string           `db:"account_id"`
	Kind      NotificationKind `db:"kind"`
	Channel   string           `db:"channel"`
	Success   bool             `db:"success"`
	Error     string           `db:"error"`
	CreatedAt time.Time        `db:"created_at"`
}
