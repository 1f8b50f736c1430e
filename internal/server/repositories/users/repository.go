// Package users stores user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id ident.ID) (*models.User, error)
}
