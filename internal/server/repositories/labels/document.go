package labels

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

type DocumentRepository struct {
	coll storage.Collection
}

func NewDocumentRepository(coll storage.Collection) *DocumentRepository {
	return &DocumentRepository{coll: coll}
}

func (r *DocumentRepository) Create(ctx context.Context, label *models.Label) (*models.Label, error) {
	id, err := r.coll.Insert(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}
	label.ID = id
	return label, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Label, error) {
	raws, err := r.coll.FindMany(ctx, storage.Filter{"user_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return storage.DecodeAll[models.Label](raws)
}
