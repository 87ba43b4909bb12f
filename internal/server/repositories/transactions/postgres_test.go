package transactions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+transactions`).
		WithArgs("t-1", "a-1", "cs_1", int64(50000), "mxn", "paid", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Transaction{
		ID: "t-1", AccountID: "a-1", PaymentRef: "cs_1", Amount: 50000, Currency: "mxn", Status: models.TransactionPaid, CreatedAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicatePayment(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintPaymentRef})

	err := repo.Create(context.Background(), &models.Transaction{ID: "t-1"})
	assert.ErrorIs(t, err, common.ErrDuplicatePayment)
}

func TestCreate_OtherError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO transactions`).WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &models.Transaction{ID: "t-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrDuplicatePayment)
}

func TestGetByPaymentRef(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	q := `(?s)FROM\s+transactions\s+WHERE\s+payment_ref\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("cs_1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "account_id", "payment_ref", "amount", "currency", "status", "created_at"}).
			AddRow("t-1", "a-1", "cs_1", int64(50000), "mxn", "paid", at))
	mock.ExpectQuery(q).WithArgs("cs_x").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("cs_y").WillReturnError(errors.New("db err"))

	got, err := repo.GetByPaymentRef(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.AccountID)
	assert.Equal(t, int64(50000), got.Amount)

	_, err = repo.GetByPaymentRef(context.Background(), "cs_x")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByPaymentRef(context.Background(), "cs_y")
	assert.ErrorContains(t, err, "db error")
}

func TestTotals(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*), COALESCE(sum(amount), 0) FROM transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(int64(4), int64(200000)))

	count, amount, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, int64(200000), amount)
}
