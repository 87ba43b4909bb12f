package models

import "time"

// CredentialKind tells why a credential was issued.
type CredentialKind string

const (
	CredentialInitial CredentialKind = "initial"
	CredentialRenewal CredentialKind = "renewal"
)

// CredentialHistory is an append-only record of every issued credential.
// Authentication never consults it.
type CredentialHistory struct {
	ID         string         `db:"id"`
	AccountID  string         `db:"account_id"`
	Credential string         `db:"credential"`
	Kind       CredentialKind `db:"kind"`
	IssuedAt   time.Time      `db:"issued_at"`
	ExpiresAt  time.Time      `db:"expires_at"`
}
