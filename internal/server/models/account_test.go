package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccount_IsActive(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  AccountStatus
		expires time.Time
		active  bool
		expired bool
	}{
		{"active future", StatusActive, now.Add(time.Hour), true, false},
		{"active at boundary", StatusActive, now, false, true},
		{"active past", StatusActive, now.Add(-time.Second), false, true},
		{"expired status", StatusExpired, now.Add(time.Hour), false, true},
		{"disabled", StatusDisabled, now.Add(time.Hour), false, false},
		{"disabled past", StatusDisabled, now.Add(-time.Hour), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Status: tt.status, ExpiresAt: tt.expires}
			assert.Equal(t, tt.active, a.IsActive(now))
			assert.Equal(t, tt.expired, a.IsExpired(now))
		})
	}
}
