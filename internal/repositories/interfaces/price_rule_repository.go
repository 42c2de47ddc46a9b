package interfaces

import (
	"context"

	"shuttle/internal/models"
)

type PriceRuleRepository interface {
	GetByID(ctx context.Context, id string) (*models.PriceRule, error)
	List(ctx context.Context) ([]*models.PriceRule, error)
	Upsert(ctx context.Context, rule *models.PriceRule) error
	Delete(ctx context.Context, id string) error
}
