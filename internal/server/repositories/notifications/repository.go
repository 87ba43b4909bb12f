package notifications

import (
	"context"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, n *models.NotificationAttempt) error
	CountFailed(ctx context.Context) (int64, error)
}
