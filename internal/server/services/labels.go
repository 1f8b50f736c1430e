package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/labels"
)

type LabelService struct {
	labels labels.Repository
	now    func() time.Time
}

func NewLabelService(repo labels.Repository) *LabelService {
	return &LabelService{labels: repo, now: time.Now}
}

func (s *LabelService) Create(ctx context.Context, owner *models.User, name string) (*models.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: label name is required", common.ErrorInvalidInput)
	}
	return s.labels.Create(ctx, &models.Label{
		UserID:    owner.ID.String(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	})
}

func (s *LabelService) List(ctx context.Context, owner *models.User) ([]models.Label, error) {
	return s.labels.ListByOwner(ctx, owner.ID.String())
}
