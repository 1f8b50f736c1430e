package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

// DocumentRepository keeps users in a storage collection.
type DocumentRepository struct {
	coll storage.Collection
}

func NewDocumentRepository(coll storage.Collection) *DocumentRepository {
	return &DocumentRepository{coll: coll}
}

// Create inserts user and sets its ID. A duplicate email fails with
// common.ErrorAlreadyExists.
func (r *DocumentRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id, err := r.coll.Insert(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	return user, nil
}

func (r *DocumentRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	if err := r.coll.FindOne(ctx, storage.Filter{"email": email}, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id ident.ID) (*models.User, error) {
	user := &models.User{}
	if err := r.coll.FindByID(ctx, id, user); err != nil {
		return nil, err
	}
	return user, nil
}
