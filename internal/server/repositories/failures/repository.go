package failures

import (
	"context"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, f *models.Failure) error
}
