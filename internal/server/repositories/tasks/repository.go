// Package tasks stores tasks. Every lookup is scoped to the owning user.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, ownerID string, id ident.ID) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error)
	Update(ctx context.Context, ownerID string, id ident.ID, patch storage.Patch) error
	Delete(ctx context.Context, ownerID string, id ident.ID) error
}
