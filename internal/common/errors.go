// Package common defines shared constants and sentinel errors used across
// the portal's storage, service and transport layers. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentity   = errors.New("an active account already exists for this email")
	ErrDuplicatePayment    = errors.New("payment already recorded")
	ErrCredentialCollision = errors.New("credential already in use")

	// Service-level errors (generic/internal flow control).
	ErrInternal           = errors.New("internal error")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique access code")

	// Payment confirmation errors.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrPaymentUnverified   = errors.New("payment could not be verified")

	// Login errors.
	ErrInvalidCredential = errors.New("invalid access code")
	ErrAccountExpired    = errors.New("access expired")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrLockedOut         = errors.New("too many failed attempts")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// AdminSecretHeaderName carries the shared secret on admin requests.
const AdminSecretHeaderName = "X-Admin-Secret"
