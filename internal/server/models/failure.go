package models

import "time"

// Failure is a durable record of a failed store mutation, kept apart from
// the activity log.
type Failure struct {
	ID         string    `db:"id"`
	Operation  string    `db:"operation"`
	AccountRef string    `db:"account_ref"`
	Detail     string    `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}
