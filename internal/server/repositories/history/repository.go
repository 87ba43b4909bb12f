package history

import (
	"context"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, h *models.CredentialHistory) error
	ListByAccount(ctx context.Context, accountID string) ([]*models.CredentialHistory, error)
}
