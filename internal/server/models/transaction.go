package models

import "time"

// Transaction is one confirmed payment. PaymentRef is unique and serves as
// the idempotency key for replayed confirmations.
type Transaction struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"account_id"`
	PaymentRef string    `db:"payment_ref"`
	Amount     int64     `db:"amount"`
	Currency   string    `db:"currency"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// TransactionPaid is the status stored for confirmed payments.
const TransactionPaid = "paid"
