// Package models defines server-side data models persisted in the database.
package models

import "time"

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusExpired  AccountStatus = "expired"
	StatusDisabled AccountStatus = "disabled"
)

// Account is one customer identity with its current access credential.
type Account struct {
	ID            string        `db:"id"`
	Email         string        `db:"email"`
	Name          string        `db:"name"`
	Phone         string        `db:"phone"`
	Credential    string        `db:"credential"`
	PaymentRef    string        `db:"payment_ref"`
	Status        AccountStatus `db:"status"`
	CreatedAt     time.Time     `db:"created_at"`
	LastPaymentAt time.Time     `db:"last_payment_at"`
	ExpiresAt     time.Time     `db:"expires_at"`

	// WarnedAt is set once the pre-expiry warning for the current validity
	// period was delivered; renewal clears it.
	WarnedAt  *time.Time `db:"warned_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// IsActive reports whether the account may authenticate at now: status is
// active and the expiry lies strictly in the future.
func (a *Account) IsActive(now time.Time) bool {
	return a.Status == StatusActive && now.Before(a.ExpiresAt)
}

// IsExpired reports whether the account is expired by status or by time.
// Disabled accounts are never considered expired.
func (a *Account) IsExpired(now time.Time) bool {
	switch a.Status {
	case StatusExpired:
		return true
	case StatusActive:
		return !now.Before(a.ExpiresAt)
	default:
		return false
	}
}

// NewAccount carries the fields for a first-time account creation.
type NewAccount struct {
	ID         string
	Email      string
	Name       string
	Phone      string
	Credential string
	PaymentRef string
	PaidAt     time.Time
	ExpiresAt  time.Time
}

// RenewMode selects how a renewal treats an account that is still active
// once its row is locked.
type RenewMode int

const (
	// RenewExtend always installs the new credential and stacks validity on
	// the remaining time.
	RenewExtend RenewMode = iota
	// RenewIfLapsed only records the payment when the locked account is
	// still active; a concurrent renewal already served it.
	RenewIfLapsed
)

// Stats is an aggregate view for the admin dashboard.
type Stats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	Expired        int64 `json:"expired"`
	Disabled       int64 `json:"disabled"`
	ExpiringSoon   int64 `json:"expiring_soon"`
	Transactions   int64 `json:"transactions"`
	RevenueMinor   int64 `json:"revenue_minor"`
	LoginsLast24h  int64 `json:"logins_last_24h"`
	FailedNotifies int64 `json:"failed_notifications"`
}
