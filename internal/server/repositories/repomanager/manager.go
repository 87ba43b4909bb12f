package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/accessportal/internal/dbx"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/activity"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/failures"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/history"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/transactions"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	History(db dbx.DBTX) history.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Activity(db dbx.DBTX) activity.Repository
	Notifications(db dbx.DBTX) notifications.Repository
	Failures(db dbx.DBTX) failures.Repository
}
