package activity

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, a *models.Activity) error
	CountSince(ctx context.Context, action models.ActivityAction, since time.Time) (int64, error)
}
