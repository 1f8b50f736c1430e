package tasks

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

type DocumentRepository struct {
	coll storage.Collection
}

func NewDocumentRepository(coll storage.Collection) *DocumentRepository {
	return &DocumentRepository{coll: coll}
}

func owned(ownerID string, id ident.ID) storage.Filter {
	return storage.Filter{"_id": id, "user_id": ownerID}
}

func (r *DocumentRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.Labels == nil {
		task.Labels = []string{}
	}
	id, err := r.coll.Insert(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	task.ID = id
	return task, nil
}

func (r *DocumentRepository) Get(ctx context.Context, ownerID string, id ident.ID) (*models.Task, error) {
	task := &models.Task{}
	if err := r.coll.FindOne(ctx, owned(ownerID, id), task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListByOwner returns the owner's tasks in insertion order.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	raws, err := r.coll.FindMany(ctx, storage.Filter{"user_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return storage.DecodeAll[models.Task](raws)
}

// Update fails with common.ErrorNotFound when the owner has no such task.
func (r *DocumentRepository) Update(ctx context.Context, ownerID string, id ident.ID, patch storage.Patch) error {
	ok, err := r.coll.UpdateOne(ctx, owned(ownerID, id), patch)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, ownerID string, id ident.ID) error {
	ok, err := r.coll.DeleteOne(ctx, owned(ownerID, id))
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
