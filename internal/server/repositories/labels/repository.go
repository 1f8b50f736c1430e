// Package labels stores per-user labels.
package labels

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, label *models.Label) (*models.Label, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Label, error)
}
