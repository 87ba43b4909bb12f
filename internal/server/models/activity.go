package models

import "time"

// ActivityAction names an audited event. Values are kept as stored by the
// legacy portal database.
type ActivityAction string

const (
	ActionLogin    ActivityAction = "login"
	ActionRegister ActivityAction = "registro"
	ActionRenew    ActivityAction = "renovacion"
	ActionLogout   ActivityAction = "logout"
	ActionDisable  ActivityAction = "deshabilitado"
	ActionEnable   ActivityAction = "habilitado"
)

type Activity struct {
	ID        string         `db:"id"`
	AccountID string         `db:"account_id"`
	Action    ActivityAction `db:"action"`
	Detail    string         `db:"detail"`
	Origin    string         `db:"origin"`
	CreatedAt time.Time      `db:"created_at"`
}
