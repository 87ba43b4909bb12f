package activity

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndCount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+activity_log`).
		WithArgs("ev-1", "a-1", "registro", "cs_1", "webhook", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM activity_log WHERE action = $1 AND created_at >= $2`)).
		WithArgs("login", at).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Add(context.Background(), &models.Activity{
		ID: "ev-1", AccountID: "a-1", Action: models.ActionRegister, Detail: "cs_1", Origin: "webhook", CreatedAt: at,
	}))

	n, err := repo.CountSince(context.Background(), models.ActionLogin, at)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
